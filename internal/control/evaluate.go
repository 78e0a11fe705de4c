package control

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-compressor/internal/types"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Evaluate runs one evaluating step on a compiled state: count pages, move
// pressure, score, guard against regressions, escalate on overflow and pick
// the next status.
func (c *Controller) Evaluate(ctx context.Context, s State) State {
	ctx, span := c.tracer.Start(ctx, "evaluate")
	defer span.End()

	s = s.Clone()
	s.Status = StatusEvaluating
	s.Iteration++
	log := c.logger.With(zap.String("run_id", s.RunID), zap.Int("iteration", s.Iteration))

	pages := c.countPages(ctx, s, log)
	s.Pressure = c.deps.Pressure.Update(s.Pressure, pages)
	s.Tier = c.deps.Tiers.TierFor(s.Pressure)

	review := c.review(ctx, s, pages, log)
	scores := review.Scores.Clamp()
	raw := scores.Total()
	penalty := PagePenalty(pages)
	adjusted := raw + penalty

	ev := types.Evaluation{
		Scores:            scores,
		RawScore:          raw,
		PagePenalty:       penalty,
		PageCount:         pages,
		NeedsImprovement:  review.NeedsImprovement,
		TwoPagesJustified: review.TwoPagesJustified,
		Issues:            append([]string(nil), review.Issues...),
		Suggestions:       append([]string(nil), review.Suggestions...),
		ReviewSource:      review.Source,
	}

	if s.PreviousScore != 0 && adjusted < s.PreviousScore {
		var issue string
		if s.Checkpoint != nil {
			issue = fmt.Sprintf("Score regressed from %d to %d; rolled back to the previous version", s.PreviousScore, adjusted)
			regressed := s.ArtifactPath
			s.Data = s.Checkpoint.Data.Clone()
			s.Source = s.Checkpoint.Source
			s.ArtifactPath = s.Checkpoint.ArtifactPath
			c.discard(s, regressed)
			adjusted = s.PreviousScore
			ev.RolledBack = true
		} else {
			issue = fmt.Sprintf("Score regressed from %d to %d", s.PreviousScore, adjusted)
		}
		ev.Issues = append(ev.Issues, issue)
		s.Issues = append(s.Issues, issue)
		log.Warn("score regression", zap.String("issue", issue), zap.Bool("rolled_back", ev.RolledBack))
	}

	ev.AdjustedScore = adjusted
	s.ScoreHistory = append(s.ScoreHistory, adjusted)
	s.PreviousScore = adjusted

	if pages > 1 {
		s.Level = s.Level.Escalate()
		s.EstimatedLines = c.deps.Planner.Estimator().Estimate(s.Data).Total
	}

	// A rolled-back score belongs to the restored version, not to the page
	// count just measured, so it cannot pass on its own.
	ev.Passed = !ev.RolledBack && c.policy.Passes(pages, adjusted, s.Pressure, review.TwoPagesJustified)

	switch {
	case ev.Passed:
		s.Status = StatusComplete
	case pages > 1 && s.iterationsRemain():
		s.Status = StatusNeedsRegeneration
	case s.iterationsRemain():
		s.Status = StatusNeedsImprovement
		s.Feedback = append([]string(nil), review.Suggestions...)
	default:
		s.Status = StatusComplete
	}

	s.Evaluation = &ev
	s.History = append(s.History, ev)

	span.SetAttributes(
		attribute.Int("iteration", s.Iteration),
		attribute.Int("pages", pages),
		attribute.Float64("pressure", s.Pressure),
		attribute.String("level", s.Level.String()),
		attribute.Int("score", adjusted),
		attribute.Bool("passed", ev.Passed),
		attribute.Bool("rolled_back", ev.RolledBack),
	)
	log.Info("evaluation complete",
		zap.Int("pages", pages),
		zap.Float64("pressure", s.Pressure),
		zap.String("tier", s.Tier.String()),
		zap.String("level", s.Level.String()),
		zap.Int("raw_score", raw),
		zap.Int("score", adjusted),
		zap.Bool("passed", ev.Passed),
		zap.String("review_source", ev.ReviewSource),
		zap.String("next", string(s.Status)))

	for _, o := range c.observer {
		o.ObserveEvaluation(ctx, s, ev)
	}
	return s
}

// countPages falls back to one page when the artifact cannot be inspected
func (c *Controller) countPages(ctx context.Context, s State, log *zap.Logger) int {
	if c.deps.PageCounter == nil {
		return 1
	}
	pages, err := c.deps.PageCounter.CountPages(ctx, s.ArtifactPath)
	if err != nil || pages < 1 {
		log.Warn("page count unavailable, assuming one page",
			zap.String("artifact", s.ArtifactPath), zap.Error(err))
		return 1
	}
	return pages
}

// review asks the reviewer and falls back to the rule scorer on any failure
func (c *Controller) review(ctx context.Context, s State, pages int, log *zap.Logger) types.Review {
	if c.deps.Reviewer != nil {
		r, err := c.deps.Reviewer.Review(ctx, s.Source, s.Role, pages, s.Pressure)
		if err == nil {
			return r
		}
		log.Warn("reviewer failed, using rule-based scoring", zap.Error(err))
	}
	r := c.deps.Fallback.Score(s.Data, s.Source, s.Role)
	if r.Source == "" {
		r.Source = "rules"
	}
	return r
}
