package robots

import (
	"bufio"
	"fmt"
	"strings"
	"time"
)

// ParseRobotsTxt parses robots.txt content. Consecutive user-agent lines
// share the rules that follow them; rules before any user-agent line form
// a leading * group.
func ParseRobotsTxt(content, hostname string) RobotsResponse {
	response := RobotsResponse{
		Host:       hostname,
		Sitemaps:   []string{},
		UserAgents: []UserAgentGroup{},
	}

	scanner := bufio.NewScanner(strings.NewReader(content))

	var current *UserAgentGroup
	var global UserAgentGroup

	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			switch {
			case current == nil:
				current = &UserAgentGroup{UserAgents: []string{value}}
			case len(current.Allows) == 0 && len(current.Disallows) == 0 && current.CrawlDelay == nil:
				current.UserAgents = append(current.UserAgents, value)
			default:
				response.UserAgents = append(response.UserAgents, *current)
				current = &UserAgentGroup{UserAgents: []string{value}}
			}

		case "allow", "disallow":
			target := &global
			if current != nil {
				target = current
			}
			if field == "allow" {
				target.Allows = append(target.Allows, PathRule{Path: value})
			} else {
				target.Disallows = append(target.Disallows, PathRule{Path: value})
			}

		case "crawl-delay":
			if current != nil {
				var seconds float64
				if _, err := fmt.Sscanf(value, "%f", &seconds); err == nil && seconds >= 0 {
					delay := time.Duration(seconds * float64(time.Second))
					current.CrawlDelay = &delay
				}
			}

		case "sitemap":
			if value != "" {
				response.Sitemaps = append(response.Sitemaps, value)
			}
		}
	}

	if current != nil {
		response.UserAgents = append(response.UserAgents, *current)
	}
	if len(global.Allows) > 0 || len(global.Disallows) > 0 {
		global.UserAgents = []string{"*"}
		response.UserAgents = append([]UserAgentGroup{global}, response.UserAgents...)
	}

	return response
}
