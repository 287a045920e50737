package robots

import (
	"testing"
	"time"
)

const sampleRobots = `
# comment line
User-agent: *
Disallow: /private/
Allow: /private/open
Disallow: /*.pdf$
Sitemap: https://example.com/sitemap.xml

User-agent: ResultFinder
User-agent: OtherBot
Disallow: /search
Crawl-delay: 2.5
`

func TestParseRobotsTxt(t *testing.T) {
	response := ParseRobotsTxt(sampleRobots, "example.com")

	if response.Host != "example.com" {
		t.Errorf("expected host example.com, got %q", response.Host)
	}
	if len(response.Sitemaps) != 1 {
		t.Fatalf("expected 1 sitemap, got %d", len(response.Sitemaps))
	}
	if len(response.UserAgents) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(response.UserAgents))
	}

	star := response.UserAgents[0]
	if len(star.Disallows) != 2 || len(star.Allows) != 1 {
		t.Errorf("unexpected * group rules: %+v", star)
	}

	named := response.UserAgents[1]
	if len(named.UserAgents) != 2 {
		t.Errorf("expected consecutive user-agent lines to share a group, got %v", named.UserAgents)
	}
	if named.CrawlDelay == nil || *named.CrawlDelay != 2500*time.Millisecond {
		t.Errorf("expected crawl delay 2.5s, got %v", named.CrawlDelay)
	}
}

func TestParseRobotsTxt_RulesBeforeUserAgent(t *testing.T) {
	response := ParseRobotsTxt("Disallow: /tmp\nUser-agent: bot\nDisallow: /x\n", "h")

	if len(response.UserAgents) != 2 {
		t.Fatalf("expected leading rules to form a group, got %d groups", len(response.UserAgents))
	}
	if response.UserAgents[0].UserAgents[0] != "*" {
		t.Errorf("expected leading group to be *, got %v", response.UserAgents[0].UserAgents)
	}
}

func TestRobotsResponse_IsEmpty(t *testing.T) {
	if !(RobotsResponse{}).IsEmpty() {
		t.Error("zero response should be empty")
	}
	if ParseRobotsTxt(sampleRobots, "h").IsEmpty() {
		t.Error("sample response should not be empty")
	}
	if !ParseRobotsTxt("User-agent: *\n", "h").IsEmpty() {
		t.Error("group without rules should be empty")
	}
}

func TestRuleSet_Decide(t *testing.T) {
	response := ParseRobotsTxt(sampleRobots, "example.com")

	tests := []struct {
		name    string
		agent   string
		path    string
		allowed bool
		reason  DecisionReason
	}{
		{"no rule matches", "*", "/index.html", true, NoMatchingRules},
		{"disallowed prefix", "*", "/private/data", false, DisallowedByRobots},
		{"longer allow wins", "*", "/private/open/page", true, AllowedByRobots},
		{"wildcard with end anchor", "*", "/docs/file.pdf", false, DisallowedByRobots},
		{"end anchor not matched", "*", "/docs/file.pdf?x=1", true, NoMatchingRules},
		{"named group", "ResultFinder", "/search?q=go", false, DisallowedByRobots},
		{"named group ignores star rules", "resultfinder", "/private/data", true, NoMatchingRules},
		{"prefix agent falls to longest name", "OtherBot-News", "/search", false, DisallowedByRobots},
		{"unknown agent uses star", "Mozilla", "/private/x", false, DisallowedByRobots},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, reason := newRuleSet(response, tt.agent).decide(tt.path)
			if allowed != tt.allowed {
				t.Errorf("expected allowed=%v, got %v", tt.allowed, allowed)
			}
			if reason != tt.reason {
				t.Errorf("expected reason %q, got %q", tt.reason, reason)
			}
		})
	}
}

func TestRuleSet_AllowWinsTie(t *testing.T) {
	response := ParseRobotsTxt("User-agent: *\nDisallow: /page\nAllow: /page\n", "h")

	allowed, reason := newRuleSet(response, "*").decide("/page")
	if !allowed || reason != AllowedByRobots {
		t.Errorf("expected allow on equal-length match, got %v %q", allowed, reason)
	}
}

func TestRuleSet_EmptyDisallowAllowsAll(t *testing.T) {
	response := ParseRobotsTxt("User-agent: *\nDisallow:\n", "h")

	allowed, _ := newRuleSet(response, "*").decide("/anything")
	if !allowed {
		t.Error("expected empty Disallow to allow every path")
	}
}

func TestRuleSet_NoGroups(t *testing.T) {
	allowed, reason := newRuleSet(RobotsResponse{}, "*").decide("/x")
	if !allowed || reason != EmptyRuleSet {
		t.Errorf("expected allow with %q, got %v %q", EmptyRuleSet, allowed, reason)
	}

	response := ParseRobotsTxt("User-agent: SomeBot\nDisallow: /\n", "h")
	allowed, reason = newRuleSet(response, "Mozilla").decide("/x")
	if !allowed || reason != UserAgentNotMatched {
		t.Errorf("expected allow with %q, got %v %q", UserAgentNotMatched, allowed, reason)
	}
}

func TestProductToken(t *testing.T) {
	tests := map[string]string{
		"":                                "*",
		"ResultFinder/1.0":                "ResultFinder",
		"Mozilla/5.0 (X11; Linux x86_64)": "Mozilla",
		"curl":                            "curl",
	}
	for ua, want := range tests {
		if got := productToken(ua); got != want {
			t.Errorf("productToken(%q) = %q, want %q", ua, got, want)
		}
	}
}
