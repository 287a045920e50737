package pathexpr

import (
	"fmt"

	"github.com/rohmanhakim/result-finder/pkg/failure"
)

type PathErrorCause string

const (
	ErrCauseEmptyExpression    = "empty expression"
	ErrCauseMissingRoot        = "expression must start with /"
	ErrCauseEmptyStep          = "empty step"
	ErrCauseUnbalancedBrackets = "unbalanced brackets"
	ErrCauseUnterminatedQuote  = "unterminated quote"
	ErrCauseUnsupportedAxis    = "unsupported axis"
)

type PathError struct {
	Message string
	Cause   PathErrorCause
	Input   string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path expression error: %s: %q", e.Cause, e.Input)
}

// Severity is always recoverable: a bad expression abandons one branch of
// exploration, never the whole pass.
func (e *PathError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
