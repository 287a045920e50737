package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/rohmanhakim/result-finder/pkg/retry"
)

/*
Responsibilities

- Request the page with browser-like headers
- Classify responses and retry the transient ones
- Record every fetch with metadata

Only successful HTML responses are returned. The fetcher never parses
content; it only returns bytes and metadata.
*/

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 16 << 20

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	userAgent    string
}

func NewHtmlFetcher(metadataSink metadata.MetadataSink) HtmlFetcher {
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    defaultUserAgent,
	}
}

// Init replaces the HTTP client and user agent. An empty user agent keeps
// the default.
func (h *HtmlFetcher) Init(httpClient *http.Client, userAgent string) {
	if httpClient != nil {
		h.httpClient = httpClient
	}
	if userAgent != "" {
		h.userAgent = userAgent
	}
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	fetchUrl url.URL,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HtmlFetcher.Fetch"
	startTime := time.Now()

	outcome := retry.Retry(ctx, retryParam, func(ctx context.Context) (FetchResult, failure.ClassifiedError) {
		return h.performFetch(ctx, fetchUrl)
	})
	duration := time.Since(startTime)

	result := outcome.Value()
	result.meta.attempts = outcome.Attempts()

	var statusCode int
	var contentType string
	if !outcome.IsFailure() {
		statusCode = result.Code()
		contentType = result.ContentType()
	}
	h.metadataSink.RecordFetch(
		fetchUrl.String(),
		statusCode,
		duration,
		contentType,
		outcome.Attempts(),
	)

	if err := outcome.Err(); err != nil {
		if errors.Is(err, &retry.RetryError{}) {
			h.recordRetryError(callerMethod, fetchUrl, err)
		} else {
			h.recordFetchError(callerMethod, fetchUrl, err)
		}
		return FetchResult{}, err
	}
	return result, nil
}

func (h *HtmlFetcher) recordFetchError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	var fetchError *FetchError
	if errors.As(err, &fetchError) {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(fetchError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			},
		)
	}
}

func (h *HtmlFetcher) recordRetryError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	var retryError *retry.RetryError
	if errors.As(err, &retryError) {
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			metadata.CauseRetryFailure,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrMessage, retryError.Error()),
				metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
			},
		)
	}
}

func (h *HtmlFetcher) performFetch(ctx context.Context, fetchUrl url.URL) (FetchResult, failure.ClassifiedError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	for key, value := range requestHeaders(h.userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		cause := ErrCauseNetworkFailure
		if errors.Is(err, context.DeadlineExceeded) {
			cause = ErrCauseTimeout
		}
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: ctx.Err() == nil,
			Cause:     FetchErrorCause(cause),
		}
	}
	defer resp.Body.Close()

	if fetchErr := classifyStatus(resp.StatusCode); fetchErr != nil {
		return FetchResult{}, fetchErr
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContent(contentType) {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("non-HTML content type: %s", contentType),
			Retryable: false,
			Cause:     ErrCauseContentTypeInvalid,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("failed to read response body: %v", err),
			Retryable: true,
			Cause:     ErrCauseReadResponseBodyError,
		}
	}
	if len(body) > maxBodyBytes {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("body exceeds %d bytes", maxBodyBytes),
			Retryable: false,
			Cause:     ErrCauseBodyTooLarge,
		}
	}

	responseHeaders := make(map[string]string)
	for key, values := range resp.Header {
		if len(values) > 0 {
			responseHeaders[key] = values[0]
		}
	}

	finalURL := fetchUrl
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = *resp.Request.URL
	}

	return FetchResult{
		url:  finalURL,
		body: body,
		meta: ResponseMeta{
			statusCode:          resp.StatusCode,
			transferredSizeByte: uint64(len(body)),
			responseHeaders:     responseHeaders,
		},
	}, nil
}

func classifyStatus(code int) *FetchError {
	switch {
	case code >= 500:
		return &FetchError{
			Message:   fmt.Sprintf("server error: %d", code),
			Retryable: true,
			Cause:     ErrCauseRequest5xx,
		}
	case code == http.StatusTooManyRequests:
		return &FetchError{
			Message:   "rate limited (429)",
			Retryable: true,
			Cause:     ErrCauseRequestTooMany,
		}
	case code == http.StatusForbidden:
		return &FetchError{
			Message:   "access forbidden (403)",
			Retryable: false,
			Cause:     ErrCauseRequestPageForbidden,
		}
	case code >= 400:
		return &FetchError{
			Message:   fmt.Sprintf("client error: %d", code),
			Retryable: false,
			Cause:     ErrCauseRequestClientError,
		}
	case code >= 300:
		// http.Client follows redirects; reaching here means it gave up
		return &FetchError{
			Message:   fmt.Sprintf("redirect error: %d", code),
			Retryable: false,
			Cause:     ErrCauseRedirectLimitExceeded,
		}
	}
	return nil
}

func isHTMLContent(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

// requestHeaders leaves Accept-Encoding to the transport so gzip bodies
// are decoded transparently.
func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
	}
}
