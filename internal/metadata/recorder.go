package metadata

import (
	"time"

	"go.uber.org/zap"
)

/*
Metadata Collected
- Fetch timestamps and HTTP status codes
- Discovery summaries (seed paths, wrappers, best selector)
- Written report paths and hashes

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Selectors
- Hashes
- Status codes
- Durations

Determinism guarantees:
 - Metadata does not affect control flow
 - Output is stable given identical inputs

Metadata is write-only.
No component may read metadata to influence discovery decisions.
*/

/*
Recorder forwards structured events to a zap logger.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded synchronously in the order they are received.
*/
type Recorder struct {
	runID  string
	logger *zap.Logger
}

func NewRecorder(runID string, logger *zap.Logger) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Recorder{
		runID:  runID,
		logger: logger.With(zap.String("run_id", runID)),
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	record := ErrorRecord{
		packageName: packageName,
		action:      action,
		cause:       cause,
		errorString: errorString,
		observedAt:  observedAt,
		attrs:       attrs,
	}
	fields := []zap.Field{
		zap.Time("observed_at", record.observedAt),
		zap.String("package", record.packageName),
		zap.String("action", record.action),
		zap.Stringer("cause", record.cause),
		zap.String("error", record.errorString),
	}
	r.logger.Warn("error", append(fields, attrFields(record.attrs)...)...)
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
	event := FetchEvent{
		fetchUrl:    fetchUrl,
		httpStatus:  httpStatus,
		duration:    duration,
		contentType: contentType,
		retryCount:  retryCount,
	}
	r.logger.Info("fetch",
		zap.String("url", event.fetchUrl),
		zap.Int("http_status", event.httpStatus),
		zap.Duration("duration", event.duration),
		zap.String("content_type", event.contentType),
		zap.Int("retry_count", event.retryCount),
	)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("path", path),
	}
	r.logger.Info("artifact", append(fields, attrFields(attrs)...)...)
}

/*
RecordDiscovery records the summary of a completed finder pass.

Contract:
  - MUST be called only after ranking and row removal finished.
  - The event MUST be derived from the finder's result,
    not accumulated incrementally via the recorder.
*/
func (r *Recorder) RecordDiscovery(event DiscoveryEvent) {
	r.logger.Info("discovery",
		zap.String("url", event.PageURL()),
		zap.Int("seed_paths", event.SeedPaths()),
		zap.Int("wrappers", event.Wrappers()),
		zap.String("best_xpath", event.BestXPath()),
		zap.Int64("duration_ms", event.DurationMs()),
	)
}

func attrFields(attrs []Attribute) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for _, a := range attrs {
		fields = append(fields, zap.String(string(a.Key), a.Value))
	}
	return fields
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
	)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
	RecordDiscovery(event DiscoveryEvent)
}

// NoopSink, struct that implements metadata.Sink but does nothing
// Commands (or Tests) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal

type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {

}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordDiscovery(event DiscoveryEvent) {}
