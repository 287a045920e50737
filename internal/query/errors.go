package query

import (
	"fmt"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

type QueryErrorCause string

const (
	ErrCauseMalformedExpression = "malformed expression"
	ErrCauseEmptyResult         = "empty result"
	ErrCauseUnknownContext      = "unknown context node"
)

type QueryError struct {
	Message    string
	Cause      QueryErrorCause
	Expression string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %s: %s", e.Cause, e.Expression)
}

// Severity is recoverable for every cause: a failing selector only ends
// the exploration branch that produced it.
func (e *QueryError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

// MapQueryErrorToMetadataCause maps query-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func MapQueryErrorToMetadataCause(err *QueryError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseMalformedExpression:
		return metadata.CauseMalformedExpression
	case ErrCauseEmptyResult:
		return metadata.CauseEmptyResult
	default:
		return metadata.CauseUnknown
	}
}
