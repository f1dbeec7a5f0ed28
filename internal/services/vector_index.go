package services

import (
	"math"
	"sort"

	"github.com/pgvector/pgvector-go"

	"github.com/yungbote/conscious-backend/internal/data/repos/knowledge"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

// VectorIndex answers nearest-thought queries by cosine distance. Queries run
// on dbc.Tx when set so rows inserted earlier in the same transaction count.
type VectorIndex interface {
	Nearest(dbc dbctx.Context, vec []float32, limit int) ([]domain.Neighbor, error)
}

type pgvectorIndex struct {
	thoughts knowledge.ThoughtRepo
}

// NewPGVectorIndex queries the thought table with the pgvector <=> operator.
func NewPGVectorIndex(thoughts knowledge.ThoughtRepo) VectorIndex {
	return &pgvectorIndex{thoughts: thoughts}
}

func (i *pgvectorIndex) Nearest(dbc dbctx.Context, vec []float32, limit int) ([]domain.Neighbor, error) {
	return i.thoughts.Nearest(dbc, pgvector.NewVector(vec), limit)
}

type scanIndex struct {
	thoughts knowledge.ThoughtRepo
	pageSize int
}

// NewScanIndex computes exact cosine distance in process by paging through
// every thought. It backs sqlite deployments and tests.
func NewScanIndex(thoughts knowledge.ThoughtRepo) VectorIndex {
	return &scanIndex{thoughts: thoughts, pageSize: 500}
}

func (i *scanIndex) Nearest(dbc dbctx.Context, vec []float32, limit int) ([]domain.Neighbor, error) {
	if limit <= 0 {
		limit = 1
	}
	var out []domain.Neighbor
	var after int64
	for {
		page, err := i.thoughts.ListEmbeddings(dbc, after, i.pageSize)
		if err != nil {
			return nil, err
		}
		for _, t := range page {
			out = append(out, domain.Neighbor{
				ID:       t.ID,
				Text:     t.Text,
				Distance: CosineDistance(vec, t.Embedding.Slice()),
			})
			after = t.ID
		}
		if len(page) < i.pageSize {
			break
		}
	}
	sortNeighbors(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CosineDistance is 1 - cosine similarity, in [0, 2]. Zero-norm or
// mismatched vectors count as orthogonal.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
	if d < 0 {
		return 0
	}
	if d > 2 {
		return 2
	}
	return d
}

func sortNeighbors(ns []domain.Neighbor) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Distance != ns[j].Distance {
			return ns[i].Distance < ns[j].Distance
		}
		return ns[i].ID < ns[j].ID
	})
}
