package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/resume-compressor/internal/prompts"
	"github.com/jonathan/resume-compressor/internal/types"
	"github.com/jonathan/resume-compressor/internal/validation"
)

const (
	// MaxReviewSource bounds how much LaTeX is sent for review
	MaxReviewSource = 8000
	maxReviewNotes  = 5
)

// default scores for dimensions the model leaves out
var reviewDefaults = types.Scores{
	RoleAlignment:     25,
	ClarityImpact:     20,
	ATSOptimization:   15,
	FormattingDensity: 12,
	GrammarSafety:     8,
}

// Reviewer scores rendered LaTeX through the standard model tier
type Reviewer struct {
	client Client
	tier   ModelTier
	logger *zap.Logger
}

// NewReviewer creates a Reviewer
func NewReviewer(client Client, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{client: client, tier: TierStandard, logger: logger}
}

type reviewResponse struct {
	RoleAlignment     *float64 `json:"role_alignment"`
	ClarityImpact     *float64 `json:"clarity_impact"`
	ATSOptimization   *float64 `json:"ats_optimization"`
	FormattingDensity *float64 `json:"formatting_density"`
	GrammarSafety     *float64 `json:"grammar_safety"`
	NeedsImprovement  bool     `json:"needs_improvement"`
	TwoPagesJustified bool     `json:"two_pages_justified"`
	Issues            []string `json:"issues"`
	Suggestions       []string `json:"suggestions"`
}

// Review implements the control loop's Reviewer
func (r *Reviewer) Review(ctx context.Context, source, role string, pageCount int, pressure float64) (types.Review, error) {
	if strings.TrimSpace(role) == "" {
		role = DefaultRole
	}
	source = truncateUTF8(source, MaxReviewSource)

	prompt, err := prompts.Render(prompts.CompressionFile, prompts.KeyReviewResume, map[string]string{
		"Role":      role,
		"PageCount": strconv.Itoa(pageCount),
		"Pressure":  fmt.Sprintf("%.2f", pressure),
		"Source":    validation.QuoteExternalContent(source, "resume latex"),
	})
	if err != nil {
		return types.Review{}, err
	}

	raw, err := r.client.GenerateJSON(ctx, prompt, r.tier)
	if err != nil {
		return types.Review{}, fmt.Errorf("review resume: %w", err)
	}

	var resp reviewResponse
	if err := json.Unmarshal([]byte(CleanJSONBlock(raw)), &resp); err != nil {
		return types.Review{}, fmt.Errorf("failed to parse review: %w", err)
	}

	review := types.Review{
		Scores: types.Scores{
			RoleAlignment:     scoreOr(resp.RoleAlignment, reviewDefaults.RoleAlignment),
			ClarityImpact:     scoreOr(resp.ClarityImpact, reviewDefaults.ClarityImpact),
			ATSOptimization:   scoreOr(resp.ATSOptimization, reviewDefaults.ATSOptimization),
			FormattingDensity: scoreOr(resp.FormattingDensity, reviewDefaults.FormattingDensity),
			GrammarSafety:     scoreOr(resp.GrammarSafety, reviewDefaults.GrammarSafety),
		}.Clamp(),
		Issues:            capNotes(resp.Issues),
		Suggestions:       capNotes(resp.Suggestions),
		NeedsImprovement:  resp.NeedsImprovement,
		TwoPagesJustified: resp.TwoPagesJustified,
		Source:            "llm",
	}
	r.logger.Debug("model review",
		zap.Int("total", review.Scores.Total()),
		zap.Int("pages", pageCount),
		zap.Bool("needs_improvement", review.NeedsImprovement))
	return review, nil
}

func scoreOr(v *float64, def int) int {
	if v == nil {
		return def
	}
	return int(math.Round(*v))
}

func capNotes(notes []string) []string {
	out := make([]string, 0, maxReviewNotes)
	for _, n := range notes {
		if n = strings.TrimSpace(n); n == "" {
			continue
		}
		out = append(out, n)
		if len(out) == maxReviewNotes {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
