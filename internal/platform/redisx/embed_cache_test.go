package redisx

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

type fakeKV struct {
	data    map[string]string
	readErr error
	sets    int
}

func (f *fakeKV) MGet(ctx context.Context, keys ...string) *goredis.SliceCmd {
	vals := make([]any, len(keys))
	for i, k := range keys {
		if v, ok := f.data[k]; ok {
			vals[i] = v
		}
	}
	return goredis.NewSliceResult(vals, f.readErr)
}

func (f *fakeKV) Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.sets++
	return goredis.NewStatusResult("OK", nil)
}

type countingEmbedder struct {
	calls  int
	inputs [][]string
}

func (e *countingEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	e.calls++
	e.inputs = append(e.inputs, append([]string(nil), inputs...))
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = []float32{float32(len(in)), 1}
	}
	return out, nil
}

func TestEmbedCacheServesHitsAndBatchesMisses(t *testing.T) {
	kv := &fakeKV{data: map[string]string{}}
	inner := &countingEmbedder{}
	c := NewEmbedCache(inner, kv, "m", time.Minute, logger.Nop())

	if _, err := c.Embed(context.Background(), []string{"a", "bb"}); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if kv.sets != 2 {
		t.Fatalf("sets=%d want 2", kv.sets)
	}
	out, err := c.Embed(context.Background(), []string{"bb", "ccc", "a"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if inner.calls != 2 || len(inner.inputs[1]) != 1 || inner.inputs[1][0] != "ccc" {
		t.Fatalf("inner inputs=%v", inner.inputs)
	}
	want := []float32{2, 3, 1}
	for i := range want {
		if out[i][0] != want[i] {
			t.Fatalf("out[%d]=%v want %v", i, out[i], want[i])
		}
	}
}

func TestEmbedCacheReadFailurePassesThrough(t *testing.T) {
	kv := &fakeKV{data: map[string]string{}, readErr: errors.New("down")}
	inner := &countingEmbedder{}
	c := NewEmbedCache(inner, kv, "m", time.Minute, logger.Nop())
	out, err := c.Embed(context.Background(), []string{"x"})
	if err != nil || len(out) != 1 || inner.calls != 1 {
		t.Fatalf("out=%v err=%v calls=%d", out, err, inner.calls)
	}
}

func TestNewEmbedCacheNilKV(t *testing.T) {
	inner := &countingEmbedder{}
	if got := NewEmbedCache(inner, nil, "m", time.Minute, logger.Nop()); got != Embedder(inner) {
		t.Fatalf("expected passthrough embedder")
	}
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	if CacheKey("a", "x") == CacheKey("b", "x") {
		t.Fatalf("keys should differ by model")
	}
}
