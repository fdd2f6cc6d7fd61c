package artifact

import (
	"encoding/json"
	"fmt"
)

// Metadata keys every analyzer stamps into its stats payload.
const (
	MetaAnalyzer = "analyzer"
	MetaVersion  = "version"
)

// Stats is the per-target statistics payload carried inside an
// artifact: integer metrics, float metrics, and string metadata
// describing the producing analyzer.
type Stats struct {
	Int      map[string]int64   `json:"int"`
	Float    map[string]float64 `json:"float"`
	Metadata map[string]string  `json:"normal"`
}

// Analyzer returns the producing analyzer's identity, or "" when the
// payload does not declare one.
func (s *Stats) Analyzer() string {
	return s.Metadata[MetaAnalyzer]
}

// Version returns the producing analyzer's version, or "".
func (s *Stats) Version() string {
	return s.Metadata[MetaVersion]
}

// decodeStats parses a stats payload. Absent sections decode to empty
// maps so callers never nil-check before ranging.
func decodeStats(data []byte) (*Stats, error) {
	var st Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse stats payload: %w", err)
	}
	if st.Int == nil {
		st.Int = map[string]int64{}
	}
	if st.Float == nil {
		st.Float = map[string]float64{}
	}
	if st.Metadata == nil {
		st.Metadata = map[string]string{}
	}
	return &st, nil
}
