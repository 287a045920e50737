package dom

import (
	"fmt"

	"github.com/rohmanhakim/result-finder/pkg/failure"
)

type DomErrorCause string

const (
	ErrCauseReadFailure    = "failed to read document"
	ErrCauseCharsetFailure = "failed to decode charset"
	ErrCauseParseFailure   = "failed to parse document"
	ErrCauseNoRootElement  = "document has no root element"
)

type DomError struct {
	Message   string
	Retryable bool
	Cause     DomErrorCause
}

func (e *DomError) Error() string {
	return fmt.Sprintf("dom error: %s: %s", e.Cause, e.Message)
}

func (e *DomError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
