// Package review provides the rule-based resume scorer used when no model
// reviewer is configured or the model reviewer fails.
package review

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-compressor/internal/quality"
	"github.com/jonathan/resume-compressor/internal/types"
)

// RoleKeywords lists the keywords expected for roles whose name contains Category
type RoleKeywords struct {
	Category string
	Keywords []string
}

// Config holds the scorer's keyword and formatting tables
type Config struct {
	Roles []RoleKeywords
	// DefaultCategory is used when no category matches the role
	DefaultCategory   string
	MandatorySections []string
	DangerousCommands []string
	// MaxBulletIssues caps how many bullet issues are reported
	MaxBulletIssues int
}

// DefaultConfig returns the standard tables
func DefaultConfig() Config {
	return Config{
		Roles: []RoleKeywords{
			{Category: "software", Keywords: []string{"python", "java", "javascript", "react", "node", "sql", "git", "agile", "api", "rest"}},
			{Category: "data", Keywords: []string{"python", "sql", "machine learning", "pandas", "numpy", "visualization", "statistics", "analytics"}},
			{Category: "machine learning", Keywords: []string{"python", "tensorflow", "pytorch", "deep learning", "nlp", "computer vision", "neural network"}},
			{Category: "frontend", Keywords: []string{"javascript", "react", "vue", "angular", "css", "html", "typescript", "responsive"}},
			{Category: "backend", Keywords: []string{"python", "java", "node", "api", "database", "sql", "microservices", "rest"}},
			{Category: "devops", Keywords: []string{"docker", "kubernetes", "aws", "ci/cd", "jenkins", "terraform", "linux", "automation"}},
		},
		DefaultCategory:   "software",
		MandatorySections: []string{"Education", "Experience", "Projects", "Technical Skills"},
		DangerousCommands: []string{`\write18`, `\input`, `\include`, `\openout`},
		MaxBulletIssues:   5,
	}
}

// Scorer scores a resume from its data and rendered source without any
// external calls. It never fails.
type Scorer struct {
	cfg      Config
	assessor *quality.Assessor
}

// NewScorer creates a Scorer. A nil assessor uses the default bullet rules.
func NewScorer(cfg Config, assessor *quality.Assessor) *Scorer {
	if assessor == nil {
		assessor = quality.NewAssessor(quality.DefaultRules())
	}
	return &Scorer{cfg: cfg, assessor: assessor}
}

// Score computes all five dimensions
func (s *Scorer) Score(data types.ResumeData, source, role string) types.Review {
	var r types.Review
	r.Source = "rules"

	clarity, bulletIssues := s.clarity(data)
	ats, atsSuggestions := s.ats(data, role)
	formatting, formatIssues := s.formatting(source)
	alignment, alignSuggestions := s.alignment(data, role)
	grammar, grammarIssues := s.grammar(source)

	r.Scores = types.Scores{
		RoleAlignment:     alignment,
		ClarityImpact:     clarity,
		ATSOptimization:   ats,
		FormattingDensity: formatting,
		GrammarSafety:     grammar,
	}.Clamp()

	r.Issues = append(r.Issues, bulletIssues...)
	r.Issues = append(r.Issues, formatIssues...)
	r.Issues = append(r.Issues, grammarIssues...)
	r.Suggestions = append(r.Suggestions, atsSuggestions...)
	r.Suggestions = append(r.Suggestions, alignSuggestions...)
	r.NeedsImprovement = r.Scores.Total() < 90
	return r
}

// clarity scales the average bullet impact (0-10) to the 25-point dimension
func (s *Scorer) clarity(data types.ResumeData) (int, []string) {
	bullets := data.AllBullets()
	if len(bullets) == 0 {
		return int(5 * 2.5), []string{"No bullet points found"}
	}

	var issues []string
	for _, b := range bullets {
		a := s.assessor.Assess(b)
		for _, issue := range a.Issues {
			if len(issues) >= s.cfg.MaxBulletIssues {
				break
			}
			issues = append(issues, fmt.Sprintf("%s: %s", issue, truncate(b, 50)))
		}
	}
	return int(s.assessor.AverageScore(bullets) * 2.5), issues
}

func (s *Scorer) ats(data types.ResumeData, role string) (int, []string) {
	keywords := s.keywordsFor(role)

	var skills []string
	for _, group := range [][]string{
		data.Skills.Languages, data.Skills.Frameworks, data.Skills.Tools,
		data.Skills.Databases, data.Skills.Cloud,
	} {
		for _, skill := range group {
			skills = append(skills, strings.ToLower(skill))
		}
	}
	joined := strings.Join(skills, " ")

	var missing []string
	for _, kw := range keywords {
		if !strings.Contains(joined, kw) {
			missing = append(missing, kw)
		}
	}
	if len(missing) == 0 {
		return 15, nil
	}
	shown := missing
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return 15 - len(missing)/2, []string{
		fmt.Sprintf("Consider adding relevant keywords: %s", strings.Join(shown, ", ")),
	}
}

// keywordsFor merges the keywords of every category named in role,
// deduplicated in table order
func (s *Scorer) keywordsFor(role string) []string {
	lower := strings.ToLower(role)
	seen := make(map[string]bool)
	var out []string
	add := func(kws []string) {
		for _, kw := range kws {
			if !seen[kw] {
				seen[kw] = true
				out = append(out, kw)
			}
		}
	}
	for _, rk := range s.cfg.Roles {
		if strings.Contains(lower, rk.Category) {
			add(rk.Keywords)
		}
	}
	if len(out) == 0 {
		for _, rk := range s.cfg.Roles {
			if rk.Category == s.cfg.DefaultCategory {
				add(rk.Keywords)
			}
		}
	}
	return out
}

func (s *Scorer) formatting(source string) (int, []string) {
	score := 15
	var issues []string

	if strings.Count(source, "\n\n\n") > 3 {
		issues = append(issues, "Excessive vertical spacing detected")
		score -= 2
	}

	var missing []string
	for _, section := range s.cfg.MandatorySections {
		if !strings.Contains(source, `\section{`+section+`}`) {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, fmt.Sprintf("Missing mandatory sections: %s", strings.Join(missing, ", ")))
		score -= 2 * len(missing)
	}
	return score, issues
}

// alignment checks that experience and projects mention the target role. An
// empty role cannot be judged and keeps the base score.
func (s *Scorer) alignment(data types.ResumeData, role string) (int, []string) {
	score := 25
	words := strings.Fields(strings.ToLower(role))
	if len(words) == 0 {
		return score, nil
	}
	matches := func(texts ...string) bool {
		joined := strings.ToLower(strings.Join(texts, " "))
		for _, w := range words {
			if strings.Contains(joined, w) {
				return true
			}
		}
		return false
	}

	var suggestions []string
	if len(data.Experience) > 0 {
		relevant := false
		for _, e := range data.Experience {
			if matches(append([]string{e.Title}, e.Bullets...)...) {
				relevant = true
				break
			}
		}
		if !relevant {
			suggestions = append(suggestions, "No experience directly matches target role")
			score -= 5
		}
	}
	if len(data.Projects) > 0 {
		relevant := false
		for _, p := range data.Projects {
			if matches(append(append([]string{}, p.Technologies...), p.Bullets...)...) {
				relevant = true
				break
			}
		}
		if !relevant {
			suggestions = append(suggestions, "Consider highlighting projects relevant to target role")
			score -= 3
		}
	}
	return score, suggestions
}

func (s *Scorer) grammar(source string) (int, []string) {
	score := 10
	var issues []string
	for _, cmd := range s.cfg.DangerousCommands {
		if strings.Contains(source, cmd) {
			issues = append(issues, fmt.Sprintf("Unsafe LaTeX command: %s", cmd))
			score -= 2
		}
	}
	return score, issues
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
