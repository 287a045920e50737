package fetcher

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

// ReadFile loads a saved page from disk. The result URL is the file URL of
// the absolute path and the content type is left for detection.
func ReadFile(path string, metadataSink metadata.MetadataSink) (FetchResult, failure.ClassifiedError) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	body, err := os.ReadFile(abs)
	if err != nil {
		fetchErr := &FetchError{
			Message:   fmt.Sprintf("read %s: %v", abs, err),
			Retryable: false,
			Cause:     ErrCauseFileUnreadable,
		}
		metadataSink.RecordError(
			time.Now(),
			"fetcher",
			"ReadFile",
			mapFetchErrorToMetadataCause(fetchErr),
			fetchErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrPath, abs),
			},
		)
		return FetchResult{}, fetchErr
	}

	return FetchResult{
		url:  url.URL{Scheme: "file", Path: filepath.ToSlash(abs)},
		body: body,
		meta: ResponseMeta{
			transferredSizeByte: uint64(len(body)),
			responseHeaders:     map[string]string{},
			attempts:            1,
		},
	}, nil
}
