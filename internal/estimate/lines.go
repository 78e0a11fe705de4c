package estimate

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-compressor/internal/types"
)

// Estimate is a per-section and total line prediction. It is a planning guide
// only; the compiled page count is authoritative.
type Estimate struct {
	Sections map[Section]int `json:"sections"`
	Total    int             `json:"total"`
}

// Lines returns the estimate for one section (0 when absent)
func (e Estimate) Lines(s Section) int {
	return e.Sections[s]
}

// BudgetOverrun describes a section estimated above its soft budget
type BudgetOverrun struct {
	Section   Section `json:"section"`
	Estimated int     `json:"estimated"`
	Budget    int     `json:"budget"`
}

// Over returns how many lines the section exceeds its budget by
func (b BudgetOverrun) Over() int {
	return b.Estimated - b.Budget
}

// Estimator computes line estimates from structured resume data
type Estimator struct {
	cfg Config
}

// New creates an Estimator. Zero fields in cfg fall back to DefaultConfig.
func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration
func (e *Estimator) Config() Config {
	return e.cfg
}

// TextLines estimates the lines one string occupies: 0 for empty text,
// otherwise ceil(characters/charsPerLine) with a minimum of 1. Characters
// are runes, so accented names and typographic dashes count once.
func (e *Estimator) TextLines(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	lines := (n + e.cfg.CharsPerLine - 1) / e.cfg.CharsPerLine
	if lines < 1 {
		return 1
	}
	return lines
}

// BulletLines sums TextLines over bullets
func (e *Estimator) BulletLines(bullets []string) int {
	total := 0
	for _, b := range bullets {
		total += e.TextLines(b)
	}
	return total
}

// Estimate predicts rendered lines per section and in total
func (e *Estimator) Estimate(data types.ResumeData) Estimate {
	sections := map[Section]int{
		SectionHeader:          e.cfg.HeaderLines,
		SectionEducation:       e.education(data.Education),
		SectionExperience:      e.experience(data.Experience),
		SectionProjects:        e.projects(data.Projects),
		SectionSkills:          e.skills(data.Skills),
		SectionExtracurricular: e.extracurricular(data.Extracurricular),
		SectionCertifications:  listSection(len(data.Certifications)),
		SectionAchievements:    listSection(len(data.Achievements)),
	}

	total := 0
	for _, n := range sections {
		total += n
	}
	return Estimate{Sections: sections, Total: total}
}

// Overflow is the estimated total minus the target. Positive means over budget.
func (e *Estimator) Overflow(data types.ResumeData) int {
	return e.Estimate(data).Total - e.cfg.TargetTotalLines
}

// TargetTotalLines returns the configured page budget in lines
func (e *Estimator) TargetTotalLines() int {
	return e.cfg.TargetTotalLines
}

// SectionsOverBudget lists sections whose estimate exceeds their soft budget,
// largest overrun first. Certifications and achievements share the optional budget.
func (e *Estimator) SectionsOverBudget(data types.ResumeData) []BudgetOverrun {
	est := e.Estimate(data)
	lines := func(s Section) int {
		if s == SectionOptional {
			return est.Lines(SectionCertifications) + est.Lines(SectionAchievements)
		}
		return est.Lines(s)
	}

	budgeted := []Section{
		SectionHeader, SectionEducation, SectionExperience, SectionProjects,
		SectionSkills, SectionExtracurricular, SectionOptional,
	}

	var out []BudgetOverrun
	for _, s := range budgeted {
		budget, ok := e.cfg.Budgets[s]
		if !ok {
			continue
		}
		if n := lines(s); n > budget {
			out = append(out, BudgetOverrun{Section: s, Estimated: n, Budget: budget})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Over() > out[j].Over()
	})
	return out
}

func (e *Estimator) education(entries []types.Education) int {
	if len(entries) == 0 {
		return 0
	}
	lines := 1
	for _, edu := range entries {
		lines++ // institution + degree
		if edu.GPA != "" {
			lines++
		}
		if len(edu.Coursework) > 0 {
			lines += e.TextLines("Relevant Coursework: " + strings.Join(edu.Coursework, ", "))
		}
		lines += e.BulletLines(edu.Achievements)
	}
	return lines
}

func (e *Estimator) experience(entries []types.Experience) int {
	if len(entries) == 0 {
		return 0
	}
	lines := 1
	for _, exp := range entries {
		lines += 2 // company/location, title/dates
		lines += e.BulletLines(exp.Bullets)
	}
	return lines
}

func (e *Estimator) projects(entries []types.Project) int {
	if len(entries) == 0 {
		return 0
	}
	lines := 1
	for _, p := range entries {
		lines++ // name + tech stack
		lines += e.BulletLines(p.Bullets)
	}
	return lines
}

func (e *Estimator) skills(skills types.Skills) int {
	cats := skills.Categories()
	if len(cats) == 0 {
		return 0
	}
	lines := 1
	for _, c := range cats {
		lines += e.TextLines(c.Label + ": " + strings.Join(c.Items, ", "))
	}
	return lines
}

func (e *Estimator) extracurricular(entries []types.Extracurricular) int {
	if len(entries) == 0 {
		return 0
	}
	lines := 1
	for _, x := range entries {
		lines++ // organization + role
		lines += e.BulletLines(x.Bullets)
	}
	return lines
}

func listSection(items int) int {
	if items == 0 {
		return 0
	}
	return 1 + items
}
