package aggregate

import (
	"fmt"

	"tally/internal/artifact"
)

// Signature identifies one analyzer run. Every artifact folded into
// an aggregation must have been produced by exactly this analyzer at
// exactly this version; anything else is stale output from a previous
// configuration and is skipped.
type Signature struct {
	Analyzer string
	Version  string
}

// Matches reports whether the stats metadata declares exactly this
// analyzer and version. A payload missing either key reads as "" and
// fails against any validated signature.
func (s Signature) Matches(st *artifact.Stats) bool {
	return st.Analyzer() == s.Analyzer && st.Version() == s.Version
}

func (s Signature) String() string {
	return fmt.Sprintf("%s@%s", s.Analyzer, s.Version)
}
