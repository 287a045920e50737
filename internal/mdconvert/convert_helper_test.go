package mdconvert_test

import (
	"time"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/internal/report"
)

// metadataSinkMock is a mock for metadata.MetadataSink
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

func (m *metadataSinkMock) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
}

func (m *metadataSinkMock) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
}

func (m *metadataSinkMock) RecordDiscovery(event metadata.DiscoveryEvent) {
}

func samplePage() *report.Page {
	return &report.Page{
		ID:    "https://shop.example.com/search?q=camera",
		Time:  42,
		XPath: "//li[@class='result']",
		Results: []report.Result{
			{
				Rank: 1,
				URL:  "https://shop.example.com/item/1",
				Snippet: `<li class="result" onclick="track()">` +
					`<h3><a href="/item/1">Nikon D7000</a></h3>` +
					`<img src="/img/1.png" alt="Nikon">` +
					`<p>Digital <b>SLR</b> camera</p>` +
					`<script>alert(1)</script></li>`,
			},
			{
				Rank:    2,
				Snippet: `<li class="result"><h3>Canon EOS</h3><a href="#reviews">reviews</a></li>`,
			},
		},
	}
}
