package robots

import (
	"regexp"
	"strings"
	"time"
)

type pathRule struct {
	pattern string
	re      *regexp.Regexp
}

// ruleSet is the resolved view of a robots.txt for one user agent.
type ruleSet struct {
	host          string
	userAgent     string
	allowRules    []pathRule
	disallowRules []pathRule
	crawlDelay    *time.Duration
	matchedGroup  bool
	hasGroups     bool
}

func newRuleSet(response RobotsResponse, userAgent string) ruleSet {
	rs := ruleSet{
		host:      response.Host,
		userAgent: userAgent,
		hasGroups: len(response.UserAgents) > 0,
	}

	group := response.groupFor(userAgent)
	if group == nil {
		return rs
	}
	rs.matchedGroup = true
	rs.allowRules = compileRules(group.Allows)
	rs.disallowRules = compileRules(group.Disallows)
	if group.CrawlDelay != nil {
		delay := *group.CrawlDelay
		rs.crawlDelay = &delay
	}
	return rs
}

// compileRules drops empty patterns; an empty Disallow allows everything.
func compileRules(rules []PathRule) []pathRule {
	out := make([]pathRule, 0, len(rules))
	for _, r := range rules {
		if r.Path == "" {
			continue
		}
		pattern := r.Path
		if !strings.HasPrefix(pattern, "/") && !strings.HasPrefix(pattern, "*") {
			pattern = "/" + pattern
		}
		out = append(out, pathRule{pattern: pattern, re: patternRegexp(pattern)})
	}
	return out
}

func patternRegexp(pattern string) *regexp.Regexp {
	anchored := strings.HasSuffix(pattern, "$")
	pattern = strings.TrimSuffix(pattern, "$")

	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := "^" + strings.Join(parts, ".*")
	if anchored {
		expr += "$"
	}
	return regexp.MustCompile(expr)
}

// longestMatch returns the length of the longest pattern matching path, or -1.
func longestMatch(rules []pathRule, path string) int {
	best := -1
	for _, r := range rules {
		if r.re.MatchString(path) && len(r.pattern) > best {
			best = len(r.pattern)
		}
	}
	return best
}

// decide applies the longest-match rule; allow wins a tie.
func (r ruleSet) decide(path string) (bool, DecisionReason) {
	if !r.hasGroups {
		return true, EmptyRuleSet
	}
	if !r.matchedGroup {
		return true, UserAgentNotMatched
	}

	allow := longestMatch(r.allowRules, path)
	disallow := longestMatch(r.disallowRules, path)
	switch {
	case allow < 0 && disallow < 0:
		return true, NoMatchingRules
	case disallow > allow:
		return false, DisallowedByRobots
	default:
		return true, AllowedByRobots
	}
}
