package fetcher

import (
	"context"
	"net/url"

	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/rohmanhakim/result-finder/pkg/retry"
)

// Fetcher retrieves the markup of the page under analysis.
type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchUrl url.URL,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
