package finder

import (
	"fmt"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

type FinderErrorCause string

const (
	ErrCauseInconsistentState = "inconsistent state"
)

type FinderError struct {
	Message   string
	Retryable bool
	Cause     FinderErrorCause
}

func (e *FinderError) Error() string {
	return fmt.Sprintf("finder error: %s: %s", e.Cause, e.Message)
}

func (e *FinderError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapFinderErrorToMetadataCause maps finder-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFinderErrorToMetadataCause(err *FinderError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseInconsistentState:
		return metadata.CauseInvariantViolation
	default:
		return metadata.CauseUnknown
	}
}
