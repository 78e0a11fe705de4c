// Package compress applies compression tiers and structural plans to resume
// data. Every operation works on a clone so the caller's data stays usable as
// a rollback checkpoint.
package compress

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/quality"
	"github.com/jonathan/resume-compressor/internal/types"
	"go.uber.org/zap"
)

// Rewriter shortens bullets for a target role under a directive. It must
// return at most as many bullets as it was given.
type Rewriter interface {
	Rewrite(ctx context.Context, bullets []string, role string, directive planning.Directive) ([]string, error)
}

// Mode identifies how a compression pass was driven
type Mode string

// Compression modes
const (
	ModeTier Mode = "tier"
	ModePlan Mode = "plan"
)

// Report summarises one compression pass
type Report struct {
	Mode             Mode           `json:"mode"`
	Tier             planning.Tier  `json:"tier"`
	Level            planning.Level `json:"level"`
	BulletsDropped   int            `json:"bullets_dropped"`
	ItemsDropped     int            `json:"items_dropped"`
	SectionsRemoved  []string       `json:"sections_removed,omitempty"`
	RewritesAccepted int            `json:"rewrites_accepted"`
	RewritesRejected int            `json:"rewrites_rejected"`
	RewriteFailures  int            `json:"rewrite_failures"`
	// Hints are rewrite instructions carried forward from a structural plan
	Hints  []string `json:"hints,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// Compressor applies tier and plan reductions
type Compressor struct {
	assessor *quality.Assessor
	rewriter Rewriter
	logger   *zap.Logger
}

// New creates a Compressor. A nil rewriter disables rewriting; a nil assessor
// uses the default rules.
func New(assessor *quality.Assessor, rewriter Rewriter, logger *zap.Logger) *Compressor {
	if assessor == nil {
		assessor = quality.NewAssessor(quality.DefaultRules())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compressor{assessor: assessor, rewriter: rewriter, logger: logger}
}

// CompressForTier caps items and bullets per the directive's tier limits,
// rewrites the surviving bullets, and removes optional sections when the tier
// allows it.
func (c *Compressor) CompressForTier(ctx context.Context, data types.ResumeData, d planning.Directive, role string) (types.ResumeData, Report) {
	out := data.Clone()
	report := Report{Mode: ModeTier, Tier: d.Tier, Level: d.Level}
	limits := d.Limits

	if n := planning.Cap(len(out.Experience), limits.MaxExperiences); n < len(out.Experience) {
		report.ItemsDropped += len(out.Experience) - n
		out.Experience = out.Experience[:n]
	}
	for i := range out.Experience {
		out.Experience[i].Bullets = c.keepTop(out.Experience[i].Bullets, limits.MaxExperienceBullets, &report)
	}

	if n := planning.Cap(len(out.Projects), limits.MaxProjects); n < len(out.Projects) {
		report.ItemsDropped += len(out.Projects) - n
		out.Projects = out.Projects[:n]
	}
	for i := range out.Projects {
		out.Projects[i].Bullets = c.keepTop(out.Projects[i].Bullets, limits.MaxProjectBullets, &report)
	}

	if c.rewriter != nil {
		for i := range out.Experience {
			label := fmt.Sprintf("experience %q", out.Experience[i].Company)
			out.Experience[i].Bullets = c.rewrite(ctx, out.Experience[i].Bullets, role, d, label, &report)
		}
		for i := range out.Projects {
			label := fmt.Sprintf("project %q", out.Projects[i].Name)
			out.Projects[i].Bullets = c.rewrite(ctx, out.Projects[i].Bullets, role, d, label, &report)
		}
	}

	if limits.OptionalRemovable {
		for _, s := range limits.RemoveSections {
			if removeOptional(&out, s) {
				report.SectionsRemoved = append(report.SectionsRemoved, string(s))
			}
		}
		if limits.StripEducation {
			for i := range out.Education {
				e := &out.Education[i]
				if n := planning.Cap(len(e.Coursework), limits.MaxCoursework); n < len(e.Coursework) {
					e.Coursework = e.Coursework[:n]
				}
				report.BulletsDropped += len(e.Achievements)
				e.Achievements = nil
			}
		}
	}

	c.logger.Debug("tier compression applied",
		zap.String("tier", d.Tier.String()),
		zap.Int("bullets_dropped", report.BulletsDropped),
		zap.Int("items_dropped", report.ItemsDropped),
		zap.Strings("sections_removed", report.SectionsRemoved),
		zap.Int("rewrites_accepted", report.RewritesAccepted))

	return out, report
}

// keepTop applies a bullet cap by impact rank
func (c *Compressor) keepTop(bullets []string, limit int, report *Report) []string {
	if limit < 0 || len(bullets) <= limit {
		return bullets
	}
	report.BulletsDropped += len(bullets) - limit
	return c.assessor.TopK(bullets, limit)
}

// rewrite asks the rewriter for shorter bullets and keeps them only when they
// pass verification. Any failure leaves the originals in place.
func (c *Compressor) rewrite(ctx context.Context, bullets []string, role string, d planning.Directive, label string, report *Report) []string {
	if len(bullets) == 0 {
		return bullets
	}

	rewritten, err := c.rewriter.Rewrite(ctx, bullets, role, d)
	if err != nil {
		report.RewriteFailures++
		c.logger.Warn("rewrite failed, keeping original bullets",
			zap.String("entry", label), zap.Error(err))
		return bullets
	}
	rewritten = dropBlank(rewritten)
	if len(rewritten) == 0 || len(rewritten) > len(bullets) {
		report.RewriteFailures++
		c.logger.Warn("rewrite returned unusable bullet count, keeping originals",
			zap.String("entry", label),
			zap.Int("original", len(bullets)),
			zap.Int("rewritten", len(rewritten)))
		return bullets
	}

	v := c.assessor.Verify(bullets, rewritten)
	if !v.Acceptable {
		report.RewritesRejected++
		for _, issue := range v.Issues {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: %s", label, issue))
		}
		c.logger.Warn("rewrite failed verification, keeping original bullets",
			zap.String("entry", label),
			zap.Strings("issues", v.Issues),
			zap.Float64("original_average", v.OriginalAverage),
			zap.Float64("rewrite_average", v.RewriteAverage))
		return bullets
	}

	report.RewritesAccepted++
	return rewritten
}

func removeOptional(data *types.ResumeData, s planning.OptionalSection) bool {
	switch s {
	case planning.OptionalAchievements:
		had := len(data.Achievements) > 0
		data.Achievements = nil
		return had
	case planning.OptionalCertifications:
		had := len(data.Certifications) > 0
		data.Certifications = nil
		return had
	case planning.OptionalExtracurricular:
		had := len(data.Extracurricular) > 0
		data.Extracurricular = nil
		return had
	}
	return false
}

func dropBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
