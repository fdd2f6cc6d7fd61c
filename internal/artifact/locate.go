package artifact

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"tally/internal/logging"
)

// DefaultExt is the file-name suffix per-target packaging gives its
// artifact archives.
const DefaultExt = ".zip"

// Scan walks root and returns candidate artifact paths in traversal
// order. The order is deterministic for a given tree: WalkDir visits
// entries lexically. Unreadable subtrees are logged and skipped; only
// an unreadable root fails the scan.
func Scan(root, ext string) ([]string, error) {
	if ext == "" {
		ext = DefaultExt
	}
	log := logging.New("scan")

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ext) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return paths, nil
}
