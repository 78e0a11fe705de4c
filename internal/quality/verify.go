package quality

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	capitalizedKeyword = regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:\+\+|#)?\b`)
	numericToken       = regexp.MustCompile(`\d+%?`)
)

// Verification is the advisory result of comparing a rewrite with its source bullets
type Verification struct {
	Acceptable      bool     `json:"acceptable"`
	Issues          []string `json:"issues,omitempty"`
	OriginalAverage float64  `json:"original_average"`
	RewriteAverage  float64  `json:"rewrite_average"`
}

// Verify checks that compressed bullets kept the quality, technology names and
// metrics of the originals. It never blocks anything by itself.
func (a *Assessor) Verify(original, compressed []string) Verification {
	var issues []string

	origAvg := a.AverageScore(original)
	compAvg := a.AverageScore(compressed)
	if compAvg < origAvg-a.rules.MaxAverageScoreDrop {
		issues = append(issues, fmt.Sprintf("Quality dropped: %.1f -> %.1f", origAvg, compAvg))
	}

	originalJoined := strings.Join(original, " ")
	compressedLower := strings.ToLower(strings.Join(compressed, " "))

	seen := make(map[string]bool)
	for _, kw := range capitalizedKeyword.FindAllString(originalJoined, -1) {
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !strings.Contains(compressedLower, key) {
			issues = append(issues, fmt.Sprintf("Lost technical keyword: %s", kw))
		}
	}

	origMetrics := len(numericToken.FindAllString(originalJoined, -1))
	compMetrics := len(numericToken.FindAllString(strings.Join(compressed, " "), -1))
	if float64(compMetrics) < float64(origMetrics)*a.rules.MinMetricRetention {
		issues = append(issues, fmt.Sprintf("Significant metric loss detected: %d -> %d", origMetrics, compMetrics))
	}

	return Verification{
		Acceptable:      len(issues) == 0,
		Issues:          issues,
		OriginalAverage: origAvg,
		RewriteAverage:  compAvg,
	}
}
