package metadata

import (
	"time"
)

type FetchEvent struct {
	fetchUrl    string
	httpStatus  int
	duration    time.Duration
	contentType string
	retryCount  int
}

/*
DiscoveryEvent
  - Summarizes one completed finder pass over a page
  - Contains only counts and durations
  - Is recorded once per pass, after ranking and row removal
  - Must not influence ranking, filtering or output
*/
type DiscoveryEvent struct {
	pageURL    string
	seedPaths  int
	wrappers   int
	bestXPath  string
	durationMs int64
}

func NewDiscoveryEvent(pageURL string, seedPaths int, wrappers int, bestXPath string, duration time.Duration) DiscoveryEvent {
	return DiscoveryEvent{
		pageURL:    pageURL,
		seedPaths:  seedPaths,
		wrappers:   wrappers,
		bestXPath:  bestXPath,
		durationMs: duration.Milliseconds(),
	}
}

func (e DiscoveryEvent) PageURL() string   { return e.pageURL }
func (e DiscoveryEvent) SeedPaths() int    { return e.seedPaths }
func (e DiscoveryEvent) Wrappers() int     { return e.wrappers }
func (e DiscoveryEvent) BestXPath() string { return e.bestXPath }
func (e DiscoveryEvent) DurationMs() int64 { return e.durationMs }

type ArtifactKind string

const (
	ArtifactReport   ArtifactKind = "report"
	ArtifactMarkdown ArtifactKind = "markdown"
	ArtifactHTML     ArtifactKind = "html"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, continuation, or abort decisions.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure

Meaning:
  - Failure caused by network transport or remote availability.

Examples:
  - TCP timeouts, DNS failures, connection resets
  - Lost DevTools connection to the browser

# CausePolicyDisallow

Meaning:
  - The remote side refused to serve the page.

Examples:
  - HTTP 403 / 401
  - HTTP 429 after retries were exhausted

# CauseContentInvalid

Meaning:
  - Content was fetched but could not be processed meaningfully.

Examples:
  - Non-HTML responses
  - Undecodable charsets, unparsable markup

# CauseStorageFailure

Meaning:
  - Failure while persisting reports.

# CauseInvariantViolation

Meaning:
  - An internal invariant was violated.

Examples:
  - Attribute subsets of mismatched length

# CauseMalformedExpression

Meaning:
  - A generated selector could not be compiled or evaluated.

# CauseEmptyResult

Meaning:
  - A selector evaluated cleanly but matched no nodes.

# CauseRenderFailure

Meaning:
  - The browser could not load, script or serialize a page.

# CauseRetryFailure

Meaning:
  - An operation kept failing until its retry budget ran out.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
	CauseMalformedExpression
	CauseEmptyResult
	CauseRenderFailure
	CauseRetryFailure
)

var causeNames = map[ErrorCause]string{
	CauseUnknown:             "unknown",
	CauseNetworkFailure:      "network_failure",
	CausePolicyDisallow:      "policy_disallow",
	CauseContentInvalid:      "content_invalid",
	CauseStorageFailure:      "storage_failure",
	CauseInvariantViolation:  "invariant_violation",
	CauseMalformedExpression: "malformed_expression",
	CauseEmptyResult:         "empty_result",
	CauseRenderFailure:       "render_failure",
	CauseRetryFailure:        "retry_failure",
}

func (c ErrorCause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	return causeNames[CauseUnknown]
}

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL       AttributeKey = "url"
	AttrHost      AttributeKey = "host"
	AttrPath      AttributeKey = "path"
	AttrField     AttributeKey = "field"
	AttrWritePath AttributeKey = "write_path"
	AttrXPath     AttributeKey = "xpath"
	AttrMessage   AttributeKey = "message"
)
