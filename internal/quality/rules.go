// Package quality scores resume bullets for impact and checks that a
// compressed rewrite kept the information of the original.
package quality

import (
	"regexp"
	"strings"
)

// Rules is the immutable vocabulary and weighting used by an Assessor
type Rules struct {
	ActionVerbs   []string
	WeakPhrases   []string
	FillerPhrases []string
	TechPatterns  []*regexp.Regexp

	MissingVerbPenalty  float64
	PhrasePenalty       float64
	NoMetricPenalty     float64
	PercentBonus        float64
	TechBonus           float64
	TooLongPenalty      float64
	TooShortPenalty     float64
	MaxWords            int
	MinWords            int
	VerbPrefixLen       int
	MaxAverageScoreDrop float64
	MinMetricRetention  float64
}

// DefaultRules returns the standard verb, phrase and technology lists
func DefaultRules() Rules {
	return Rules{
		ActionVerbs: []string{
			"Developed", "Designed", "Implemented", "Built", "Created", "Engineered",
			"Architected", "Optimized", "Enhanced", "Improved", "Streamlined", "Accelerated",
			"Led", "Managed", "Directed", "Orchestrated", "Spearheaded", "Coordinated",
			"Achieved", "Delivered", "Exceeded", "Accomplished", "Launched", "Deployed",
			"Automated", "Integrated", "Scaled", "Reduced", "Increased", "Transformed",
			"Analyzed", "Evaluated", "Researched", "Identified", "Established", "Pioneered",
		},
		WeakPhrases: []string{
			"worked on", "helped with", "responsible for", "assisted with",
			"was involved in", "participated in", "dealt with", "handled",
			"with the help of", "in order to", "various features",
			"different aspects", "multiple tasks", "several projects",
		},
		FillerPhrases: []string{
			"in order to", "so that", "with the goal of", "for the purpose of",
			"as well as", "in addition to", "on a daily basis", "at the end of the day",
		},
		TechPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(API|REST|GraphQL|SQL|NoSQL|ML|AI|NLP|AWS|GCP|Azure|Docker|K8s|CI/CD)\b`),
			regexp.MustCompile(`(?i)\b(Python|Java|JavaScript|TypeScript|React|Node|Go|Rust)\b|\bC\+\+`),
			regexp.MustCompile(`(?i)\b(TensorFlow|PyTorch|Pandas|NumPy|Kubernetes|Redis|MongoDB)\b`),
		},
		MissingVerbPenalty:  1.5,
		PhrasePenalty:       1.0,
		NoMetricPenalty:     1.0,
		PercentBonus:        0.5,
		TechBonus:           0.5,
		TooLongPenalty:      0.5,
		TooShortPenalty:     1.0,
		MaxWords:            25,
		MinWords:            5,
		VerbPrefixLen:       4,
		MaxAverageScoreDrop: 1.0,
		MinMetricRetention:  0.7,
	}
}

// phrases returns weak and filler phrases lowercased and deduplicated, in
// declaration order
func (r Rules) phrases() []string {
	seen := make(map[string]bool, len(r.WeakPhrases)+len(r.FillerPhrases))
	out := make([]string, 0, len(r.WeakPhrases)+len(r.FillerPhrases))
	for _, list := range [][]string{r.WeakPhrases, r.FillerPhrases} {
		for _, p := range list {
			p = strings.ToLower(p)
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// verbs returns the action verbs lowercased
func (r Rules) verbs() []string {
	out := make([]string, len(r.ActionVerbs))
	for i, v := range r.ActionVerbs {
		out[i] = strings.ToLower(v)
	}
	return out
}
