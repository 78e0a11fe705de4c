package llm

import (
	"context"
	"sync"
)

// fakeClient returns canned responses and records prompts
type fakeClient struct {
	mu      sync.Mutex
	respond func(prompt string, tier ModelTier) (string, error)
	prompts []string
	tiers   []ModelTier
	closed  bool
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.tiers = append(f.tiers, tier)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.respond(prompt, tier)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func reply(s string) func(string, ModelTier) (string, error) {
	return func(string, ModelTier) (string, error) { return s, nil }
}
