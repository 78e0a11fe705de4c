package quality

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	digitPattern   = regexp.MustCompile(`\d+`)
	percentPattern = regexp.MustCompile(`\d+%`)
)

// Assessment is the impact score of a single bullet
type Assessment struct {
	Text          string   `json:"text"`
	ImpactScore   float64  `json:"impact_score"`
	Issues        []string `json:"issues,omitempty"`
	HasActionVerb bool     `json:"has_action_verb"`
	HasMetric     bool     `json:"has_metric"`
	HasTechTerm   bool     `json:"has_tech_term"`
	WordCount     int      `json:"word_count"`
}

// HighQuality reports a strong bullet with no recorded issues
func (a Assessment) HighQuality() bool {
	return a.ImpactScore >= 7 && len(a.Issues) == 0
}

// RankedBullet pairs a bullet with its score and its original position
type RankedBullet struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Index int     `json:"index"`
}

// Assessor scores bullets. It holds no mutable state and is safe for concurrent use.
type Assessor struct {
	rules   Rules
	verbs   []string
	phrases []string
}

// NewAssessor creates an Assessor from rules
func NewAssessor(rules Rules) *Assessor {
	return &Assessor{
		rules:   rules,
		verbs:   rules.verbs(),
		phrases: rules.phrases(),
	}
}

// Rules returns the rules the assessor was built with
func (a *Assessor) Rules() Rules {
	return a.rules
}

// Assess scores one bullet, starting from 10 and applying each rule additively.
// The result is clamped to [0, 10].
func (a *Assessor) Assess(bullet string) Assessment {
	r := a.rules
	score := 10.0
	var issues []string

	words := strings.Fields(bullet)
	first := ""
	if len(words) > 0 {
		first = strings.ToLower(strings.Trim(words[0], `.,;:!?-•*()"'`))
	}

	hasVerb := a.startsWithActionVerb(first)
	if !hasVerb {
		issues = append(issues, "Missing strong action verb at start")
		score -= r.MissingVerbPenalty
	}

	lower := strings.ToLower(bullet)
	for _, phrase := range a.phrases {
		if strings.Contains(lower, phrase) {
			issues = append(issues, fmt.Sprintf("Contains weak phrase: '%s'", phrase))
			score -= r.PhrasePenalty
		}
	}

	hasMetric := digitPattern.MatchString(bullet)
	if !hasMetric {
		issues = append(issues, "No quantification (numbers/metrics)")
		score -= r.NoMetricPenalty
	}
	if percentPattern.MatchString(bullet) {
		score += r.PercentBonus
	}

	hasTech := false
	for _, p := range r.TechPatterns {
		if p.MatchString(bullet) {
			hasTech = true
			break
		}
	}
	if hasTech {
		score += r.TechBonus
	}

	switch n := len(words); {
	case n > r.MaxWords:
		issues = append(issues, fmt.Sprintf("Bullet too long (>%d words)", r.MaxWords))
		score -= r.TooLongPenalty
	case n < r.MinWords:
		issues = append(issues, fmt.Sprintf("Bullet too short (<%d words)", r.MinWords))
		score -= r.TooShortPenalty
	}

	return Assessment{
		Text:          bullet,
		ImpactScore:   clamp(score, 0, 10),
		Issues:        issues,
		HasActionVerb: hasVerb,
		HasMetric:     hasMetric,
		HasTechTerm:   hasTech,
		WordCount:     len(words),
	}
}

// Score is shorthand for Assess(bullet).ImpactScore
func (a *Assessor) Score(bullet string) float64 {
	return a.Assess(bullet).ImpactScore
}

// Rank orders bullets by impact score, highest first. Ties keep their original order.
func (a *Assessor) Rank(bullets []string) []RankedBullet {
	ranked := make([]RankedBullet, len(bullets))
	for i, b := range bullets {
		ranked[i] = RankedBullet{Text: b, Score: a.Score(b), Index: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// TopK keeps the k highest-impact bullets, highest first. Lists already
// within the cap are returned unchanged.
func (a *Assessor) TopK(bullets []string, k int) []string {
	if k < 0 {
		k = 0
	}
	if len(bullets) <= k {
		return bullets
	}
	ranked := a.Rank(bullets)
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].Text
	}
	return out
}

// AverageScore is the mean impact score, 0 for an empty list
func (a *Assessor) AverageScore(bullets []string) float64 {
	if len(bullets) == 0 {
		return 0
	}
	total := 0.0
	for _, b := range bullets {
		total += a.Score(b)
	}
	return total / float64(len(bullets))
}

func (a *Assessor) startsWithActionVerb(first string) bool {
	if first == "" {
		return false
	}
	for _, v := range a.verbs {
		if first == v {
			return true
		}
		prefix := v
		if a.rules.VerbPrefixLen > 0 && len(prefix) > a.rules.VerbPrefixLen {
			prefix = prefix[:a.rules.VerbPrefixLen]
		}
		if strings.HasPrefix(first, prefix) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
