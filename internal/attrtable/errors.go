package attrtable

import (
	"fmt"

	"github.com/rohmanhakim/result-finder/pkg/failure"
)

type TableErrorCause string

const (
	ErrCauseInconsistentState = "inconsistent state"
)

type TableError struct {
	Message   string
	Retryable bool
	Cause     TableErrorCause
}

func (e *TableError) Error() string {
	return fmt.Sprintf("attribute table error: %s: %s", e.Cause, e.Message)
}

func (e *TableError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
