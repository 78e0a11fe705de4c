package compress

import (
	"context"
	"sort"

	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/types"
	"go.uber.org/zap"
)

// ApplyPlan applies a structural plan literally, in action priority order.
// Bullet caps keep the highest-impact bullets; item caps keep the first
// entries. Rewrite actions are not executed here; they come back as hints
// for the next rewrite pass.
func (c *Compressor) ApplyPlan(_ context.Context, data types.ResumeData, plan planning.Plan) (types.ResumeData, Report) {
	out := data.Clone()
	report := Report{Mode: ModePlan, Level: plan.Level}

	actions := make([]planning.Action, len(plan.Actions))
	copy(actions, plan.Actions)
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Kind.Priority() < actions[j].Kind.Priority()
	})

	for _, a := range actions {
		switch a.Kind {
		case planning.ActionRewrite:
			report.Hints = append(report.Hints, a.Description)
		case planning.ActionReduceBullets:
			c.reduceBullets(&out, a.Section, a.Limit, &report)
		case planning.ActionReduceItems:
			reduceItems(&out, a.Section, a.Limit, &report)
		case planning.ActionRemoveSection:
			if removeSection(&out, a.Section) {
				report.SectionsRemoved = append(report.SectionsRemoved, string(a.Section))
			}
		case planning.ActionStripEducation:
			for i := range out.Education {
				report.BulletsDropped += len(out.Education[i].Achievements)
				out.Education[i].Coursework = nil
				out.Education[i].Achievements = nil
			}
		default:
			c.logger.Warn("ignoring unknown plan action", zap.String("kind", string(a.Kind)))
		}
	}

	c.logger.Debug("structural plan applied",
		zap.String("level", plan.Level.String()),
		zap.Int("actions", len(actions)),
		zap.Int("bullets_dropped", report.BulletsDropped),
		zap.Int("items_dropped", report.ItemsDropped),
		zap.Strings("sections_removed", report.SectionsRemoved))

	return out, report
}

func (c *Compressor) reduceBullets(data *types.ResumeData, section estimate.Section, limit int, report *Report) {
	switch section {
	case estimate.SectionExperience:
		for i := range data.Experience {
			data.Experience[i].Bullets = c.keepTop(data.Experience[i].Bullets, limit, report)
		}
	case estimate.SectionProjects:
		for i := range data.Projects {
			data.Projects[i].Bullets = c.keepTop(data.Projects[i].Bullets, limit, report)
		}
	case estimate.SectionEducation:
		for i := range data.Education {
			data.Education[i].Achievements = c.keepTop(data.Education[i].Achievements, limit, report)
		}
	case estimate.SectionExtracurricular:
		for i := range data.Extracurricular {
			data.Extracurricular[i].Bullets = c.keepTop(data.Extracurricular[i].Bullets, limit, report)
		}
	}
}

func reduceItems(data *types.ResumeData, section estimate.Section, limit int, report *Report) {
	if limit < 0 {
		return
	}
	switch section {
	case estimate.SectionExperience:
		if len(data.Experience) > limit {
			report.ItemsDropped += len(data.Experience) - limit
			data.Experience = data.Experience[:limit]
		}
	case estimate.SectionProjects:
		if len(data.Projects) > limit {
			report.ItemsDropped += len(data.Projects) - limit
			data.Projects = data.Projects[:limit]
		}
	case estimate.SectionEducation:
		if len(data.Education) > limit {
			report.ItemsDropped += len(data.Education) - limit
			data.Education = data.Education[:limit]
		}
	}
}

func removeSection(data *types.ResumeData, section estimate.Section) bool {
	switch section {
	case estimate.SectionAchievements:
		return removeOptional(data, planning.OptionalAchievements)
	case estimate.SectionCertifications:
		return removeOptional(data, planning.OptionalCertifications)
	case estimate.SectionExtracurricular:
		return removeOptional(data, planning.OptionalExtracurricular)
	}
	return false
}
