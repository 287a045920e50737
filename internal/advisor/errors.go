package advisor

import (
	"fmt"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

type AdvisorErrorCause string

const (
	ErrCauseEmptyWrapper = "empty wrapper"
)

type AdvisorError struct {
	Message   string
	Retryable bool
	Cause     AdvisorErrorCause
}

func (e *AdvisorError) Error() string {
	return fmt.Sprintf("advisor error: %s: %s", e.Cause, e.Message)
}

func (e *AdvisorError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapAdvisorErrorToMetadataCause maps advisor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapAdvisorErrorToMetadataCause(err *AdvisorError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseEmptyWrapper:
		return metadata.CauseEmptyResult
	default:
		return metadata.CauseUnknown
	}
}
