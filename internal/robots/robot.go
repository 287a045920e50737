package robots

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
)

// Robot is the admission check run before a page is fetched. A page the
// site's robots.txt disallows for our agent is never requested.
type Robot struct {
	metadataSink metadata.MetadataSink
	fetcher      *RobotsFetcher
	agentToken   string
}

func NewRobot(metadataSink metadata.MetadataSink, httpClient *http.Client, userAgent string) Robot {
	return Robot{
		metadataSink: metadataSink,
		fetcher:      NewRobotsFetcher(httpClient, userAgent),
		agentToken:   productToken(userAgent),
	}
}

// Decide fetches robots.txt for the host of target and decides whether
// target may be fetched. A disallowed page is returned as a fatal error.
func (r *Robot) Decide(ctx context.Context, target url.URL) (Decision, failure.ClassifiedError) {
	decision, err := r.decide(ctx, target)
	if err != nil {
		var robotsError *RobotsError
		errors.As(err, &robotsError)
		r.metadataSink.RecordError(
			time.Now(),
			"robots",
			"Robot.Decide",
			mapRobotsErrorToMetadataCause(robotsError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, target.String()),
				metadata.NewAttr(metadata.AttrHost, target.Host),
			},
		)
		return decision, robotsError
	}
	return decision, nil
}

func (r *Robot) decide(ctx context.Context, target url.URL) (Decision, error) {
	fetched, err := r.fetcher.Fetch(ctx, target)
	if err != nil {
		return Decision{Url: target}, err
	}

	rules := newRuleSet(fetched.Response, r.agentToken)
	allowed, reason := rules.decide(requestPath(target))
	decision := Decision{
		Url:        target,
		Allowed:    allowed,
		Reason:     reason,
		CrawlDelay: rules.crawlDelay,
	}
	if !allowed {
		return decision, &RobotsError{
			Message:   target.String(),
			Retryable: false,
			Cause:     ErrCauseDisallowed,
		}
	}
	return decision, nil
}

func requestPath(u url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path
}

// productToken reduces a User-Agent header to the name robots.txt groups
// are matched against, e.g. "Mozilla/5.0 (X11)" becomes "Mozilla".
func productToken(userAgent string) string {
	token, _, _ := strings.Cut(strings.TrimSpace(userAgent), "/")
	token, _, _ = strings.Cut(token, " ")
	if token == "" {
		return "*"
	}
	return token
}
