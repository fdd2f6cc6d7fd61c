package aggregate

import "errors"

// ErrHeaderMismatch means two accepted artifacts disagree on the
// report header. The run aborts and no output is written: merging
// rows under conflicting schemas would corrupt the combined report.
var ErrHeaderMismatch = errors.New("report header mismatch")
