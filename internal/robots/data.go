package robots

import (
	"net/url"
	"strings"
	"time"
)

// RobotsResponse is the parsed content of a robots.txt file. It is not
// used for decisions directly; newRuleSet resolves it for one user agent.
type RobotsResponse struct {
	Host       string
	Sitemaps   []string
	UserAgents []UserAgentGroup
}

// UserAgentGroup is a set of rules shared by one or more user agents.
type UserAgentGroup struct {
	UserAgents []string
	Allows     []PathRule
	Disallows  []PathRule
	CrawlDelay *time.Duration
}

// PathRule is a single allow or disallow pattern. Patterns may use the
// wildcard * and the end anchor $.
type PathRule struct {
	Path string
}

// IsEmpty returns true if the response contains no rules or sitemaps.
func (r RobotsResponse) IsEmpty() bool {
	if len(r.Sitemaps) > 0 {
		return false
	}
	for _, group := range r.UserAgents {
		if len(group.Allows) > 0 || len(group.Disallows) > 0 {
			return false
		}
	}
	return true
}

// groupFor returns the group for userAgent: an exact (case-insensitive)
// match, else the longest group name that prefixes it, else the * group.
func (r RobotsResponse) groupFor(userAgent string) *UserAgentGroup {
	target := strings.ToLower(userAgent)

	var best *UserAgentGroup
	bestLength := 0
	for i := range r.UserAgents {
		group := &r.UserAgents[i]
		for _, ua := range group.UserAgents {
			name := strings.ToLower(ua)
			switch {
			case name == target:
				return group
			case name == "*":
				if best == nil {
					best = group
				}
			case strings.HasPrefix(target, name) && len(name) > bestLength:
				best = group
				bestLength = len(name)
			}
		}
	}
	return best
}

type DecisionReason string

const (
	AllowedByRobots     DecisionReason = "allowed_by_robots"
	DisallowedByRobots  DecisionReason = "disallowed_by_robots"
	UserAgentNotMatched DecisionReason = "user_agent_not_matched"
	EmptyRuleSet        DecisionReason = "empty_rule_set"
	NoMatchingRules     DecisionReason = "no_matching_rules"
)

type Decision struct {
	Url url.URL

	Allowed bool

	// Why this decision was made (for logging/debugging)
	Reason DecisionReason

	// Crawl-delay of the matched group, if any
	CrawlDelay *time.Duration
}
