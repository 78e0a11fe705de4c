// Package compress applies compression tiers and structural plans to resume
// data. Every operation works on a clone so the caller's data stays usable as
// a rollback checkpoint.
package compress

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRewriter struct {
	fn    func(bullets []string) ([]string, error)
	calls int
	last  planning.Directive
}

func (f *fakeRewriter) Rewrite(_ context.Context, bullets []string, _ string, d planning.Directive) ([]string, error) {
	f.calls++
	f.last = d
	return f.fn(bullets)
}

func capDirective(bullets int) planning.Directive {
	return planning.Directive{
		Tier: planning.TierMedium,
		Limits: planning.TierLimits{
			MaxExperienceBullets: bullets,
			MaxProjectBullets:    bullets,
			MaxExperiences:       planning.NoLimit,
			MaxProjects:          planning.NoLimit,
			MaxCoursework:        planning.NoLimit,
		},
	}
}

func TestCompressForTier_KeepsHighestImpactBullet(t *testing.T) {
	data := types.ResumeData{
		Experience: []types.Experience{{
			Company: "Acme",
			Bullets: []string{
				"Helped with testing",
				"Built API serving 10K requests/day",
				"Did misc tasks",
			},
		}},
	}

	out, report := New(nil, nil, nil).CompressForTier(context.Background(), data, capDirective(1), "Backend Engineer")

	require.Len(t, out.Experience, 1)
	assert.Equal(t, []string{"Built API serving 10K requests/day"}, out.Experience[0].Bullets)
	assert.Equal(t, 2, report.BulletsDropped)
	assert.Len(t, data.Experience[0].Bullets, 3, "input must not be mutated")
}

func TestCompressForTier_ItemCapsKeepFirstEntries(t *testing.T) {
	data := types.ResumeData{
		Experience: []types.Experience{{Company: "A"}, {Company: "B"}, {Company: "C"}, {Company: "D"}},
		Projects:   []types.Project{{Name: "P1"}, {Name: "P2"}, {Name: "P3"}, {Name: "P4"}},
	}
	d := planning.NewDirective(0.65, planning.LevelRewrite, planning.DefaultTierTable())

	out, report := New(nil, nil, nil).CompressForTier(context.Background(), data, d, "")

	assert.Equal(t, planning.TierAggressive, report.Tier)
	require.Len(t, out.Experience, 3)
	assert.Equal(t, "C", out.Experience[2].Company)
	require.Len(t, out.Projects, 3)
	assert.Equal(t, 2, report.ItemsDropped)
}

func TestCompressForTier_MaximumRemovesOptionalSections(t *testing.T) {
	data := types.ResumeData{
		Education: []types.Education{{
			Institution:  "MIT",
			Coursework:   []string{"OS", "Compilers", "Databases", "Networks", "ML"},
			Achievements: []string{"Dean's list"},
		}},
		Certifications:  []types.Certification{{Name: "CKA"}},
		Achievements:    []types.Achievement{{Title: "Winner"}},
		Extracurricular: []types.Extracurricular{{Organization: "ACM"}},
	}
	d := planning.NewDirective(0.9, planning.LevelRewrite, planning.DefaultTierTable())

	out, report := New(nil, nil, nil).CompressForTier(context.Background(), data, d, "")

	assert.Nil(t, out.Certifications)
	assert.Nil(t, out.Achievements)
	assert.Nil(t, out.Extracurricular)
	assert.Equal(t, []string{"OS", "Compilers", "Databases"}, out.Education[0].Coursework)
	assert.Empty(t, out.Education[0].Achievements)
	assert.ElementsMatch(t, []string{"achievements", "certifications", "extracurricular"}, report.SectionsRemoved)
	assert.Len(t, data.Education[0].Coursework, 5)
}

func TestCompressForTier_MediumKeepsOptionalSections(t *testing.T) {
	data := types.ResumeData{
		Certifications: []types.Certification{{Name: "CKA"}},
		Achievements:   []types.Achievement{{Title: "Winner"}},
	}
	d := planning.NewDirective(0.5, planning.LevelRewrite, planning.DefaultTierTable())

	out, report := New(nil, nil, nil).CompressForTier(context.Background(), data, d, "")

	assert.Len(t, out.Certifications, 1)
	assert.Len(t, out.Achievements, 1)
	assert.Empty(t, report.SectionsRemoved)
}

func TestCompressForTier_AcceptsVerifiedRewrite(t *testing.T) {
	rw := &fakeRewriter{fn: func([]string) ([]string, error) {
		return []string{"Built Go API serving 10K requests/day"}, nil
	}}
	data := types.ResumeData{
		Experience: []types.Experience{{
			Company: "Acme",
			Bullets: []string{"Built an API serving 10K requests/day with Go"},
		}},
	}
	d := capDirective(3)

	out, report := New(nil, rw, nil).CompressForTier(context.Background(), data, d, "Backend Engineer")

	assert.Equal(t, []string{"Built Go API serving 10K requests/day"}, out.Experience[0].Bullets)
	assert.Equal(t, 1, report.RewritesAccepted)
	assert.Equal(t, 1, rw.calls)
	assert.Equal(t, planning.TierMedium, rw.last.Tier)
}

func TestCompressForTier_RejectsRewriteThatLosesKeyword(t *testing.T) {
	rw := &fakeRewriter{fn: func([]string) ([]string, error) {
		return []string{"Built an API serving 10K requests/day"}, nil
	}}
	original := []string{"Built an API serving 10K requests/day with Go"}
	data := types.ResumeData{
		Projects: []types.Project{{Name: "Gateway", Bullets: original}},
	}

	out, report := New(nil, rw, nil).CompressForTier(context.Background(), data, capDirective(3), "")

	assert.Equal(t, original, out.Projects[0].Bullets)
	assert.Equal(t, 1, report.RewritesRejected)
	require.NotEmpty(t, report.Issues)
	assert.Contains(t, report.Issues[0], "Lost technical keyword: Go")
}

func TestCompressForTier_RewriteFailuresKeepOriginals(t *testing.T) {
	original := []string{"Built an API serving 10K requests/day"}

	tests := []struct {
		name string
		fn   func([]string) ([]string, error)
	}{
		{"error", func([]string) ([]string, error) { return nil, errors.New("model unavailable") }},
		{"too many bullets", func([]string) ([]string, error) { return []string{"a", "b"}, nil }},
		{"blank output", func([]string) ([]string, error) { return []string{"  "}, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := types.ResumeData{
				Experience: []types.Experience{{Company: "Acme", Bullets: original}},
			}
			rw := &fakeRewriter{fn: tt.fn}

			out, report := New(nil, rw, nil).CompressForTier(context.Background(), data, capDirective(3), "")

			assert.Equal(t, original, out.Experience[0].Bullets)
			assert.Equal(t, 1, report.RewriteFailures)
			assert.Zero(t, report.RewritesAccepted)
		})
	}
}

func TestCompressForTier_SkipsRewriterForEmptyBullets(t *testing.T) {
	rw := &fakeRewriter{fn: func(b []string) ([]string, error) { return b, nil }}
	data := types.ResumeData{Experience: []types.Experience{{Company: "Acme"}}}

	New(nil, rw, nil).CompressForTier(context.Background(), data, capDirective(3), "")

	assert.Zero(t, rw.calls)
}

func planFixture() types.ResumeData {
	return types.ResumeData{
		Education: []types.Education{
			{Institution: "MIT", Coursework: []string{"OS"}, Achievements: []string{"Did misc tasks", "Won 1st place of 200 teams"}},
			{Institution: "CMU"},
		},
		Experience: []types.Experience{
			{Company: "A", Bullets: []string{"Helped with testing", "Built API serving 10K requests/day", "Did misc tasks"}},
			{Company: "B", Bullets: []string{"Led team of 5 engineers"}},
			{Company: "C"},
		},
		Projects:        []types.Project{{Name: "P1"}, {Name: "P2"}},
		Certifications:  []types.Certification{{Name: "CKA"}},
		Achievements:    []types.Achievement{{Title: "Winner"}},
		Extracurricular: []types.Extracurricular{{Organization: "ACM"}},
	}
}

func TestApplyPlan_AppliesActionsLiterally(t *testing.T) {
	plan := planning.Plan{
		Level: planning.LevelTrimSections,
		Actions: []planning.Action{
			{Kind: planning.ActionRewrite, Section: planning.SectionAll, Description: "Shorten all bullets to 15-18 words"},
			{Kind: planning.ActionReduceBullets, Section: estimate.SectionExperience, Limit: 1},
			{Kind: planning.ActionReduceBullets, Section: estimate.SectionEducation, Limit: 1},
			{Kind: planning.ActionReduceItems, Section: estimate.SectionExperience, Limit: 2},
			{Kind: planning.ActionReduceItems, Section: estimate.SectionEducation, Limit: 1},
			{Kind: planning.ActionRemoveSection, Section: estimate.SectionCertifications},
			{Kind: planning.ActionRemoveSection, Section: estimate.SectionAchievements},
		},
	}
	data := planFixture()

	out, report := New(nil, nil, nil).ApplyPlan(context.Background(), data, plan)

	require.Len(t, out.Experience, 2)
	assert.Equal(t, []string{"Built API serving 10K requests/day"}, out.Experience[0].Bullets)
	assert.Equal(t, "B", out.Experience[1].Company)
	require.Len(t, out.Education, 1)
	assert.Equal(t, []string{"Won 1st place of 200 teams"}, out.Education[0].Achievements)
	assert.Equal(t, []string{"OS"}, out.Education[0].Coursework)
	assert.Nil(t, out.Certifications)
	assert.Nil(t, out.Achievements)
	assert.Len(t, out.Extracurricular, 1)
	assert.Len(t, out.Projects, 2)

	assert.Equal(t, ModePlan, report.Mode)
	assert.Equal(t, []string{"Shorten all bullets to 15-18 words"}, report.Hints)
	assert.Equal(t, 3, report.BulletsDropped)
	assert.Equal(t, 2, report.ItemsDropped)
	assert.Equal(t, []string{"certifications", "achievements"}, report.SectionsRemoved)

	assert.Equal(t, planFixture(), data, "input must not be mutated")
}

func TestApplyPlan_StripEducation(t *testing.T) {
	plan := planning.Plan{Actions: []planning.Action{
		{Kind: planning.ActionStripEducation, Section: estimate.SectionEducation},
	}}

	out, _ := New(nil, nil, nil).ApplyPlan(context.Background(), planFixture(), plan)

	for _, e := range out.Education {
		assert.Empty(t, e.Coursework)
		assert.Empty(t, e.Achievements)
	}
}

func TestApplyPlan_OrderIndependentOfInput(t *testing.T) {
	forward := planning.Plan{Actions: []planning.Action{
		{Kind: planning.ActionReduceBullets, Section: estimate.SectionExperience, Limit: 1},
		{Kind: planning.ActionReduceItems, Section: estimate.SectionExperience, Limit: 1},
	}}
	reversed := planning.Plan{Actions: []planning.Action{forward.Actions[1], forward.Actions[0]}}
	c := New(nil, nil, nil)

	a, _ := c.ApplyPlan(context.Background(), planFixture(), forward)
	b, _ := c.ApplyPlan(context.Background(), planFixture(), reversed)

	assert.Equal(t, a, b)
}

func TestApplyPlan_GeneratedPlanRoundTrip(t *testing.T) {
	cfg := estimate.DefaultConfig()
	cfg.TargetTotalLines = 5
	planner := planning.NewPlanner(estimate.New(cfg), nil)
	data := planFixture()

	plan := planner.StructuralPlan(data, planning.LevelTrimSections)
	out, _ := New(nil, nil, nil).ApplyPlan(context.Background(), data, plan)

	limits := planning.DefaultEscalationTable().For(planning.LevelTrimSections)
	assert.LessOrEqual(t, len(out.Experience), limits.Experience.MaxItems)
	assert.LessOrEqual(t, len(out.Education), limits.Education.MaxItems)
	for _, e := range out.Experience {
		assert.LessOrEqual(t, len(e.Bullets), limits.Experience.MaxBullets)
	}
	assert.Nil(t, out.Certifications)
	assert.Nil(t, out.Achievements)
	assert.Nil(t, out.Extracurricular)
	assert.Empty(t, out.Education[0].Coursework)
}
