package layout

import (
	"fmt"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

type LayoutErrorCause string

const (
	ErrCauseBrowserLaunch  = "browser launch failed"
	ErrCauseBrowserConnect = "browser connect failed"
	ErrCauseNavigation     = "navigation failed"
	ErrCauseScript         = "layout script failed"
	ErrCauseDecode         = "layout decode failed"
)

type LayoutError struct {
	Message   string
	Retryable bool
	Cause     LayoutErrorCause
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout error: %s: %s", e.Cause, e.Message)
}

func (e *LayoutError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *LayoutError) IsRetryable() bool {
	return e.Retryable
}

// mapLayoutErrorToMetadataCause maps layout-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapLayoutErrorToMetadataCause(err *LayoutError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNavigation:
		return metadata.CauseNetworkFailure
	case ErrCauseBrowserLaunch, ErrCauseBrowserConnect:
		return metadata.CauseRenderFailure
	case ErrCauseScript, ErrCauseDecode:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
