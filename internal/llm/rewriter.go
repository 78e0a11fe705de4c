package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/prompts"
	"github.com/jonathan/resume-compressor/internal/validation"
)

// DefaultRole is used when a run names no target role
const DefaultRole = "Software Engineer"

// Rewriter shortens bullets through the advanced model tier
type Rewriter struct {
	client Client
	tier   ModelTier
	logger *zap.Logger
}

// NewRewriter creates a Rewriter
func NewRewriter(client Client, logger *zap.Logger) *Rewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{client: client, tier: TierAdvanced, logger: logger}
}

type rewriteResponse struct {
	Bullets []string `json:"bullets"`
}

// Rewrite asks the model to rewrite bullets under the directive's tier rules.
// The response may be {"bullets": [...]} or a bare array.
func (r *Rewriter) Rewrite(ctx context.Context, bullets []string, role string, directive planning.Directive) ([]string, error) {
	if len(bullets) == 0 {
		return nil, nil
	}
	prompt, err := r.prompt(bullets, role, directive)
	if err != nil {
		return nil, err
	}

	raw, err := r.client.GenerateJSON(ctx, prompt, r.tier)
	if err != nil {
		return nil, fmt.Errorf("rewrite bullets: %w", err)
	}

	out, err := parseBullets(raw)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("rewrote bullets",
		zap.String("tier", directive.Tier.String()),
		zap.Int("in", len(bullets)),
		zap.Int("out", len(out)))
	return out, nil
}

func (r *Rewriter) prompt(bullets []string, role string, directive planning.Directive) (string, error) {
	if strings.TrimSpace(role) == "" {
		role = DefaultRole
	}

	var list strings.Builder
	for i, b := range bullets {
		fmt.Fprintf(&list, "%d. %s\n", i+1, b)
	}
	if check := validation.CheckInjection(list.String()); !check.IsSafe {
		r.logger.Warn("bullets contain instruction-like text",
			zap.Strings("keywords", check.DetectedKeywords))
	}

	feedback := ""
	if len(directive.Feedback) > 0 {
		feedback = "REVIEWER FEEDBACK FROM THE PREVIOUS ATTEMPT:\n- " + strings.Join(directive.Feedback, "\n- ") + "\n"
	}

	return prompts.Render(prompts.CompressionFile, prompts.KeyRewriteBullets, map[string]string{
		"Tier":         strings.ToUpper(directive.Tier.String()),
		"Role":         role,
		"Bullets":      validation.QuoteExternalContent(strings.TrimRight(list.String(), "\n"), "resume bullets"),
		"Instructions": directive.Instructions,
		"Feedback":     feedback,
	})
}

func parseBullets(raw string) ([]string, error) {
	cleaned := CleanJSONBlock(raw)

	var bullets []string
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &bullets); err != nil {
			return nil, fmt.Errorf("failed to parse rewritten bullets: %w", err)
		}
	} else {
		var resp rewriteResponse
		if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
			return nil, fmt.Errorf("failed to parse rewritten bullets: %w", err)
		}
		bullets = resp.Bullets
	}

	out := make([]string, 0, len(bullets))
	for _, b := range bullets {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no bullets")
	}
	return out, nil
}
