package robots

import (
	"fmt"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

type RobotsErrorCause string

const (
	ErrCausePreFetchFailure     = "failed to build robots.txt request"
	ErrCauseHttpFetchFailure    = "robots.txt request failed"
	ErrCauseHttpTooManyRequests = "robots.txt rate limited"
	ErrCauseHttpServerError     = "robots.txt server error"
	ErrCauseParseError          = "robots.txt unreadable"
	ErrCauseDisallowed          = "page disallowed by robots.txt"
)

type RobotsError struct {
	Message   string
	Retryable bool
	Cause     RobotsErrorCause
}

func (e *RobotsError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("robots error: %s", e.Cause)
	}
	return fmt.Sprintf("robots error: %s: %s", e.Cause, e.Message)
}

func (e *RobotsError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapRobotsErrorToMetadataCause maps robots-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapRobotsErrorToMetadataCause(err *RobotsError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseHttpFetchFailure, ErrCauseHttpServerError, ErrCauseParseError:
		return metadata.CauseNetworkFailure
	case ErrCauseHttpTooManyRequests, ErrCauseDisallowed:
		return metadata.CausePolicyDisallow
	case ErrCausePreFetchFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
