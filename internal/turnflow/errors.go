package turnflow

import "fmt"

// ValidationError reports a turn-flow request that cannot be honoured,
// such as a grant naming an unknown seat. The engine lifts it into an
// effect runtime error carrying the same field and candidates.
type ValidationError struct {
	Field      string
	Message    string
	Candidates []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
