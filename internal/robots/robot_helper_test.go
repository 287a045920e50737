package robots_test

import (
	"time"

	"github.com/rohmanhakim/result-finder/internal/metadata"
)

type metadataSinkMock struct {
	recordErrorCalls int
	recordErrorCause metadata.ErrorCause
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.recordErrorCalls++
	m.recordErrorCause = cause
}

func (m *metadataSinkMock) RecordFetch(string, int, time.Duration, string, int) {}

func (m *metadataSinkMock) RecordArtifact(metadata.ArtifactKind, string, []metadata.Attribute) {}

func (m *metadataSinkMock) RecordDiscovery(metadata.DiscoveryEvent) {}
