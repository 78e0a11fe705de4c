package planning

import (
	"fmt"
	"sort"

	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/types"
)

// ActionKind is a structural reduction step
type ActionKind string

// Action kinds in apply-priority order
const (
	ActionRewrite        ActionKind = "rewrite"
	ActionReduceBullets  ActionKind = "reduce_bullets"
	ActionReduceItems    ActionKind = "reduce_items"
	ActionRemoveSection  ActionKind = "remove_section"
	ActionStripEducation ActionKind = "strip_education"
)

// Priority is the fixed apply order. Later actions never undo earlier ones.
func (k ActionKind) Priority() int {
	switch k {
	case ActionRewrite:
		return 0
	case ActionReduceBullets:
		return 1
	case ActionReduceItems:
		return 2
	case ActionRemoveSection, ActionStripEducation:
		return 3
	default:
		return 4
	}
}

// SectionAll targets every bullet-bearing section
const SectionAll estimate.Section = "all"

// Action is one concrete cut
type Action struct {
	Kind        ActionKind       `json:"kind"`
	Section     estimate.Section `json:"section"`
	Limit       int              `json:"limit"`
	Description string           `json:"description"`
}

// Plan is the ordered list of structural actions for one escalation level
type Plan struct {
	Level          Level                    `json:"level"`
	EstimatedLines int                      `json:"estimated_lines"`
	OverflowLines  int                      `json:"overflow_lines"`
	Actions        []Action                 `json:"actions"`
	OverBudget     []estimate.BudgetOverrun `json:"over_budget,omitempty"`
}

// Empty reports a plan with nothing to do
func (p Plan) Empty() bool {
	return len(p.Actions) == 0
}

// Has reports whether the plan contains an action of kind for section
func (p Plan) Has(kind ActionKind, section estimate.Section) bool {
	for _, a := range p.Actions {
		if a.Kind == kind && a.Section == section {
			return true
		}
	}
	return false
}

// Planner builds structural reduction plans. It never mutates resume data.
type Planner struct {
	estimator *estimate.Estimator
	table     EscalationTable
}

// NewPlanner creates a Planner
func NewPlanner(estimator *estimate.Estimator, table EscalationTable) *Planner {
	if estimator == nil {
		estimator = estimate.New(estimate.DefaultConfig())
	}
	if table == nil {
		table = DefaultEscalationTable()
	}
	return &Planner{estimator: estimator, table: table}
}

// Estimator returns the line estimator the planner measures overflow with
func (p *Planner) Estimator() *estimate.Estimator {
	return p.estimator
}

// Limits returns the caps for a level
func (p *Planner) Limits(level Level) LevelLimits {
	return p.table.For(level)
}

// StructuralPlan returns the cumulative actions for level. A resume estimated
// within the line target gets an empty plan. The result depends only on its
// inputs, so repeated calls yield identical plans.
func (p *Planner) StructuralPlan(data types.ResumeData, level Level) Plan {
	plan := p.newPlan(data, level)
	if plan.OverflowLines <= 0 {
		return plan
	}
	return p.addActions(plan, data)
}

// ReductionPlan returns the cumulative actions for level whatever the line
// estimate says. The loop uses it once a compiled document measured more
// than one page, since the measurement outranks the estimate.
func (p *Planner) ReductionPlan(data types.ResumeData, level Level) Plan {
	return p.addActions(p.newPlan(data, level), data)
}

func (p *Planner) newPlan(data types.ResumeData, level Level) Plan {
	if level > MaxLevel {
		level = MaxLevel
	}
	if level < LevelRewrite {
		level = LevelRewrite
	}
	est := p.estimator.Estimate(data)
	return Plan{
		Level:          level,
		EstimatedLines: est.Total,
		OverflowLines:  est.Total - p.estimator.TargetTotalLines(),
		Actions:        []Action{},
	}
}

func (p *Planner) addActions(plan Plan, data types.ResumeData) Plan {
	level := plan.Level
	plan.OverBudget = p.estimator.SectionsOverBudget(data)

	limits := p.table.For(level)
	add := func(a Action) { plan.Actions = append(plan.Actions, a) }

	add(Action{
		Kind:        ActionRewrite,
		Section:     SectionAll,
		Limit:       18,
		Description: "Shorten all bullets to 15-18 words",
	})

	if level >= LevelReduceBullets {
		if exceedsBullets(experienceBullets(data), limits.Experience.MaxBullets) {
			add(Action{
				Kind:        ActionReduceBullets,
				Section:     estimate.SectionExperience,
				Limit:       limits.Experience.MaxBullets,
				Description: fmt.Sprintf("Max %d bullets per experience", limits.Experience.MaxBullets),
			})
		}
		if exceedsBullets(projectBullets(data), limits.Projects.MaxBullets) {
			add(Action{
				Kind:        ActionReduceBullets,
				Section:     estimate.SectionProjects,
				Limit:       limits.Projects.MaxBullets,
				Description: fmt.Sprintf("Max %d bullets per project", limits.Projects.MaxBullets),
			})
		}
		if exceedsBullets(educationBullets(data), limits.Education.MaxBullets) {
			add(Action{
				Kind:        ActionReduceBullets,
				Section:     estimate.SectionEducation,
				Limit:       limits.Education.MaxBullets,
				Description: fmt.Sprintf("Max %d achievements per education entry", limits.Education.MaxBullets),
			})
		}
	}

	if level >= LevelReduceItems {
		if len(data.Experience) > limits.Experience.MaxItems {
			add(Action{
				Kind:        ActionReduceItems,
				Section:     estimate.SectionExperience,
				Limit:       limits.Experience.MaxItems,
				Description: fmt.Sprintf("Keep only top %d experiences", limits.Experience.MaxItems),
			})
		}
		if len(data.Projects) > limits.Projects.MaxItems {
			add(Action{
				Kind:        ActionReduceItems,
				Section:     estimate.SectionProjects,
				Limit:       limits.Projects.MaxItems,
				Description: fmt.Sprintf("Keep only top %d projects", limits.Projects.MaxItems),
			})
		}
		if len(data.Education) > limits.Education.MaxItems {
			add(Action{
				Kind:        ActionReduceItems,
				Section:     estimate.SectionEducation,
				Limit:       limits.Education.MaxItems,
				Description: fmt.Sprintf("Keep only top %d education entries", limits.Education.MaxItems),
			})
		}
	}

	if level >= LevelTrimSections {
		if len(data.Achievements) > 0 {
			add(removeSection(estimate.SectionAchievements))
		}
		if len(data.Certifications) > 0 {
			add(removeSection(estimate.SectionCertifications))
		}
		if len(data.Extracurricular) > 0 {
			add(removeSection(estimate.SectionExtracurricular))
		}
		if hasEducationExtras(data) {
			add(Action{
				Kind:        ActionStripEducation,
				Section:     estimate.SectionEducation,
				Description: "Remove education coursework and achievements",
			})
		}
	}

	sort.SliceStable(plan.Actions, func(i, j int) bool {
		return plan.Actions[i].Kind.Priority() < plan.Actions[j].Kind.Priority()
	})
	return plan
}

func removeSection(section estimate.Section) Action {
	return Action{
		Kind:        ActionRemoveSection,
		Section:     section,
		Description: fmt.Sprintf("Remove %s section", section),
	}
}

func exceedsBullets(counts []int, limit int) bool {
	for _, n := range counts {
		if n > limit {
			return true
		}
	}
	return false
}

func experienceBullets(data types.ResumeData) []int {
	out := make([]int, len(data.Experience))
	for i, e := range data.Experience {
		out[i] = len(e.Bullets)
	}
	return out
}

func projectBullets(data types.ResumeData) []int {
	out := make([]int, len(data.Projects))
	for i, p := range data.Projects {
		out[i] = len(p.Bullets)
	}
	return out
}

func educationBullets(data types.ResumeData) []int {
	out := make([]int, len(data.Education))
	for i, e := range data.Education {
		out[i] = len(e.Achievements)
	}
	return out
}

func hasEducationExtras(data types.ResumeData) bool {
	for _, e := range data.Education {
		if len(e.Coursework) > 0 || len(e.Achievements) > 0 {
			return true
		}
	}
	return false
}
