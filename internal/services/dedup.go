package services

import (
	"github.com/yungbote/conscious-backend/internal/data/aggregates"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

type Candidate struct {
	Text   string
	Vector []float32
}

type NeighborResult struct {
	InputText string            `json:"input_text"`
	Neighbors []domain.Neighbor `json:"neighbors"`
	Error     string            `json:"error,omitempty"`
}

type NeighborQuery struct {
	DistanceMax float64
	Limit       int
	// Strict aborts on the first failing candidate. Otherwise failures are
	// reported per candidate and the rest continue.
	Strict bool
}

type Deduplicator interface {
	FindNeighbors(dbc dbctx.Context, candidates []Candidate, q NeighborQuery) ([]NeighborResult, error)
}

type deduplicator struct {
	index     VectorIndex
	dimension int
	log       *logger.Logger
}

func NewDeduplicator(index VectorIndex, dimension int, log *logger.Logger) Deduplicator {
	return &deduplicator{index: index, dimension: dimension, log: log.With("service", "Deduplicator")}
}

func (d *deduplicator) FindNeighbors(dbc dbctx.Context, candidates []Candidate, q NeighborQuery) ([]NeighborResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 1
	}
	out := make([]NeighborResult, 0, len(candidates))
	for i, c := range candidates {
		res := NeighborResult{InputText: c.Text, Neighbors: []domain.Neighbor{}}
		neighbors, err := d.nearest(dbc, c.Vector, limit)
		if err != nil {
			if q.Strict {
				return nil, err
			}
			d.log.For(dbc.Ctx).Warn("Neighbor query failed", "index", i, "error", err)
			res.Error = domain.MessageOf(err)
			out = append(out, res)
			continue
		}
		for _, n := range neighbors {
			if n.Distance <= q.DistanceMax {
				res.Neighbors = append(res.Neighbors, n)
			}
		}
		out = append(out, res)
	}
	return out, nil
}

func (d *deduplicator) nearest(dbc dbctx.Context, vec []float32, limit int) ([]domain.Neighbor, error) {
	if d.dimension > 0 && len(vec) != d.dimension {
		return nil, domain.Errorf(domain.CodeDimensionMismatch, "dedup.nearest", "embedding has %d dimensions, want %d", len(vec), d.dimension)
	}
	neighbors, err := d.index.Nearest(dbc, vec, limit)
	if err != nil {
		return nil, aggregates.MapError("dedup.nearest", err)
	}
	sortNeighbors(neighbors)
	return neighbors, nil
}
