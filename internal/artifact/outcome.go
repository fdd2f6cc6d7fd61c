package artifact

// Outcome classifies the result of reading one artifact archive.
type Outcome int

const (
	// OutcomeOK means both payloads were extracted and parsed.
	OutcomeOK Outcome = iota
	// OutcomeNoAnalysis means the archive is readable but carries no
	// analysis output. Normal for targets with nothing to report.
	OutcomeNoAnalysis
	// OutcomeCorrupt means the archive or one of its payloads could
	// not be read. The artifact is skipped; the run continues.
	OutcomeCorrupt
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoAnalysis:
		return "no-analysis"
	case OutcomeCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// ReadResult is the explicit disposition of one artifact. Read never
// returns an error; callers branch on Outcome. Err carries the
// diagnostic for OutcomeCorrupt and is nil otherwise.
type ReadResult struct {
	Path    string
	Outcome Outcome
	Stats   *Stats
	Rows    [][]string
	Err     error
}
