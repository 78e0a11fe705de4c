package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-compressor/internal/compress"
	"github.com/jonathan/resume-compressor/internal/planning"
)

// DefaultTTL is how long rewrite results are kept
const DefaultTTL = 24 * time.Hour

const rewriteKeyPrefix = "rewrite:"

// Store is the subset of RedisCache the rewrite cache needs
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Rewriter caches another rewriter's output by bullets, role, tier, level
// and feedback. Cache failures never fail a rewrite.
type Rewriter struct {
	next   compress.Rewriter
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

var _ compress.Rewriter = (*Rewriter)(nil)

// NewRewriter wraps next
func NewRewriter(next compress.Rewriter, store Store, ttl time.Duration, logger *zap.Logger) *Rewriter {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rewriter{next: next, store: store, ttl: ttl, logger: logger}
}

// Rewrite returns a cached result when one exists, otherwise delegates and
// stores the result
func (r *Rewriter) Rewrite(ctx context.Context, bullets []string, role string, directive planning.Directive) ([]string, error) {
	key := RewriteKey(bullets, role, directive)

	if raw, err := r.store.Get(ctx, key); err == nil {
		var cached []string
		if err := json.Unmarshal(raw, &cached); err == nil {
			r.logger.Debug("rewrite cache hit", zap.String("key", key))
			return cached, nil
		}
		r.logger.Warn("discarding corrupt rewrite cache entry", zap.String("key", key))
	} else if !errors.Is(err, ErrMiss) {
		r.logger.Warn("rewrite cache read failed", zap.Error(err))
	}

	out, err := r.next.Rewrite(ctx, bullets, role, directive)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(out)
	if err := r.store.Set(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("rewrite cache write failed", zap.Error(err))
	}
	return out, nil
}

type rewriteKey struct {
	Bullets  []string `json:"bullets"`
	Role     string   `json:"role"`
	Tier     string   `json:"tier"`
	Level    int      `json:"level"`
	Feedback []string `json:"feedback,omitempty"`
}

// RewriteKey hashes everything that changes the rewriter's output
func RewriteKey(bullets []string, role string, directive planning.Directive) string {
	data, _ := json.Marshal(rewriteKey{
		Bullets:  bullets,
		Role:     role,
		Tier:     directive.Tier.String(),
		Level:    int(directive.Level),
		Feedback: directive.Feedback,
	})
	sum := sha256.Sum256(data)
	return rewriteKeyPrefix + hex.EncodeToString(sum[:])
}
