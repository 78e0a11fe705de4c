package ratelimit

import (
	"net/http"
	"strings"
)

// exempt requests are health checks, scrapes and CORS preflights
func exempt(path, method string) bool {
	if method == http.MethodOptions {
		return true
	}
	return method == http.MethodGet && (path == "/health" || path == "/metrics")
}

// MatchEndpoint returns the configuration governing a request, or nil when
// none applies and the default limit should be used. Exempt requests get a
// zero-limit config. A config Path ending in "/" matches every path under
// it; among several matches the longest Path wins, so "/runs/" can be
// overridden by a more specific "/runs/export". An empty Method matches any
// method, but a config naming the method beats one that does not.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if exempt(path, method) {
		return &EndpointConfig{Path: path, Method: method}
	}

	var best *EndpointConfig
	bestScore := -1
	for i := range configs {
		c := &configs[i]
		if c.Method != "" && c.Method != method {
			continue
		}
		if c.Path != path && !(strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path)) {
			continue
		}
		score := 2 * len(c.Path)
		if c.Path == path {
			score += 2 * len(path) // exact beats any prefix
		}
		if c.Method != "" {
			score++
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}
