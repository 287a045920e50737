package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxRobotsBytes bounds how much of a robots.txt body is read.
const maxRobotsBytes = 500 * 1024

// RobotsFetcher fetches and parses robots.txt for one host. It does not
// make decisions about URL permissions.
type RobotsFetcher struct {
	httpClient *http.Client
	userAgent  string
}

// RobotsFetchResult represents the result of fetching a robots.txt file.
type RobotsFetchResult struct {
	Response   RobotsResponse
	FetchedAt  time.Time
	SourceURL  string
	HTTPStatus int
}

func NewRobotsFetcher(httpClient *http.Client, userAgent string) *RobotsFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RobotsFetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// Fetch retrieves robots.txt for the scheme and host of target.
// 4xx answers (other than 429) mean no restrictions and yield an empty response.
func (f *RobotsFetcher) Fetch(ctx context.Context, target url.URL) (RobotsFetchResult, error) {
	robotsURL := url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}
	result := RobotsFetchResult{
		FetchedAt: time.Now(),
		SourceURL: robotsURL.String(),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return result, &RobotsError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePreFetchFailure,
		}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return result, &RobotsError{
			Message:   err.Error(),
			Retryable: ctx.Err() == nil,
			Cause:     ErrCauseHttpFetchFailure,
		}
	}
	defer resp.Body.Close()
	result.HTTPStatus = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
		if readErr != nil {
			return result, &RobotsError{
				Message:   readErr.Error(),
				Retryable: true,
				Cause:     ErrCauseParseError,
			}
		}
		result.Response = ParseRobotsTxt(string(body), target.Host)
		return result, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return result, &RobotsError{
			Message:   fmt.Sprintf("status %d", resp.StatusCode),
			Retryable: true,
			Cause:     ErrCauseHttpTooManyRequests,
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		result.Response = RobotsResponse{Host: target.Host}
		return result, nil
	default:
		return result, &RobotsError{
			Message:   fmt.Sprintf("status %d", resp.StatusCode),
			Retryable: resp.StatusCode >= 500,
			Cause:     ErrCauseHttpServerError,
		}
	}
}
