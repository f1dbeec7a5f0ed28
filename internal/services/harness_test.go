package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/catalog"
	"github.com/yungbote/conscious-backend/internal/data/aggregates"
	"github.com/yungbote/conscious-backend/internal/data/graph"
	"github.com/yungbote/conscious-backend/internal/data/graph/graphtest"
	"github.com/yungbote/conscious-backend/internal/data/repos/knowledge"
	"github.com/yungbote/conscious-backend/internal/data/repos/testutil"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/fsrs"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	// short drops this many vectors from every response.
	short int
	err   error
	calls int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"alpha": {1, 0, 0},
		"beta":  {0, 1, 0},
		"gamma": {0, 0, 1},
	}}
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(inputs))
	for _, in := range inputs {
		v, ok := f.vectors[in]
		if !ok {
			return nil, fmt.Errorf("fake embedder: no vector for %q", in)
		}
		out = append(out, v)
	}
	if f.short > 0 && f.short <= len(out) {
		out = out[:len(out)-f.short]
	}
	return out, nil
}

type fakeCompleter struct {
	thoughts []string
	err      error
	got      string
}

func (f *fakeCompleter) ExtractThoughts(_ context.Context, text string) ([]string, error) {
	f.got = text
	return f.thoughts, f.err
}

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	failFor string
}

func (b *fakeBucket) Upload(_ context.Context, key, contentType string, body io.Reader) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if b.failFor != "" && string(raw) == b.failFor {
		return fmt.Errorf("upload refused")
	}
	if contentType != archiveContentType {
		return fmt.Errorf("unexpected content type %q", contentType)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = string(raw)
	return nil
}

func (b *fakeBucket) PublicURL(key string) string { return "https://archive.test/bucket/" + key }

type harness struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	graph    *graphtest.Memory
	embedder *fakeEmbedder
	sources  knowledge.SourceRepo
	thoughts knowledge.ThoughtRepo
	logs     knowledge.ReviewLogRepo
	ingest   IngestionService
	review   ReviewService
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.SQLite(t)
	h := &harness{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		graph:    graphtest.New(),
		embedder: newFakeEmbedder(),
		sources:  knowledge.NewSourceRepo(db, log),
		thoughts: knowledge.NewThoughtRepo(db, log),
		logs:     knowledge.NewReviewLogRepo(db, log),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	tx := aggregates.NewRetryingTxRunner(aggregates.NewGormTxRunner(db), aggregates.RetryConfig{})
	resolver := NewSourceResolver(log, h.sources, h.graph)
	dedup := NewDeduplicator(NewScanIndex(h.thoughts), testutil.Dimension, log)
	h.ingest = NewIngestionService(log, IngestionConfig{
		Dimension:           testutil.Dimension,
		DuplicateDistance:   0.05,
		SimilarDefaultLimit: 5,
	}, tx, catalog.Default(), resolver, dedup, h.embedder, h.sources, h.thoughts, h.graph, graph.NewNeo4jProjection(nil, log))

	sched, err := fsrs.New(fsrs.Config{})
	if err != nil {
		t.Fatalf("fsrs.New: %v", err)
	}
	h.review = NewReviewService(log, ReviewConfig{
		DefaultFetch: 1,
		MaxFetch:     50,
		Now:          func() time.Time { return h.now },
	}, tx, h.thoughts, h.logs, sched)
	return h
}

func (h *harness) count(model interface{}) int64 {
	h.t.Helper()
	var n int64
	if err := h.db.WithContext(h.ctx).Model(model).Count(&n).Error; err != nil {
		h.t.Fatalf("count: %v", err)
	}
	return n
}

func book(isbn string) map[string]string { return map[string]string{"isbn": isbn} }

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	if !domain.IsCode(err, code) {
		t.Fatalf("err=%v want code %s", err, code)
	}
}
