package redisx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

// Embedder is the subset of the embedding gateway the cache wraps.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// KV is the slice of goredis.Cmdable the cache needs.
type KV interface {
	MGet(ctx context.Context, keys ...string) *goredis.SliceCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

type EmbedCache struct {
	next  Embedder
	kv    KV
	model string
	ttl   time.Duration
	log   *logger.Logger
}

// NewEmbedCache wraps next with a read-through cache. A nil kv returns next unchanged.
func NewEmbedCache(next Embedder, kv KV, model string, ttl time.Duration, log *logger.Logger) Embedder {
	if kv == nil {
		return next
	}
	return &EmbedCache{next: next, kv: kv, model: model, ttl: ttl, log: log.With("service", "EmbedCache")}
}

func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return "embed:" + hex.EncodeToString(sum[:])
}

// Embed serves hits from redis and forwards misses to the wrapped embedder in
// one batch. Cache failures degrade to a pass-through call.
func (c *EmbedCache) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return c.next.Embed(ctx, inputs)
	}
	keys := make([]string, len(inputs))
	for i, in := range inputs {
		keys[i] = CacheKey(c.model, in)
	}
	vals, err := c.kv.MGet(ctx, keys...).Result()
	if err != nil || len(vals) != len(inputs) {
		if err != nil {
			c.log.Warn("Embedding cache read failed", "error", err)
		}
		return c.next.Embed(ctx, inputs)
	}

	out := make([][]float32, len(inputs))
	var missIdx []int
	var missText []string
	for i, v := range vals {
		if s, ok := v.(string); ok {
			var vec []float32
			if json.Unmarshal([]byte(s), &vec) == nil && len(vec) > 0 {
				out[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missText = append(missText, inputs[i])
	}
	if len(missIdx) == 0 {
		return out, nil
	}

	fresh, err := c.next.Embed(ctx, missText)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missText) {
		// Let the caller see the upstream count.
		return fresh, nil
	}
	for j, i := range missIdx {
		out[i] = fresh[j]
		raw, err := json.Marshal(fresh[j])
		if err != nil {
			continue
		}
		if err := c.kv.Set(ctx, keys[i], raw, c.ttl).Err(); err != nil {
			c.log.Warn("Embedding cache write failed", "error", err)
		}
	}
	return out, nil
}
