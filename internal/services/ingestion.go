package services

import (
	"context"
	"strings"

	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/conscious-backend/internal/catalog"
	"github.com/yungbote/conscious-backend/internal/data/aggregates"
	"github.com/yungbote/conscious-backend/internal/data/graph"
	"github.com/yungbote/conscious-backend/internal/data/repos/knowledge"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/observability"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type IngestionConfig struct {
	Dimension           int
	DuplicateDistance   float64
	SimilarDefaultLimit int
}

type AddCollectionInput struct {
	SourceType  string
	Identifiers map[string]string
	Texts       []string
	// Contents are archived URLs of the raw text, merged into the source.
	Contents []string
}

type AddCollectionResult struct {
	SourceIDs  []int64 `json:"source_ids"`
	ThoughtIDs []int64 `json:"thought_ids"`
}

type AddThoughtInput struct {
	Text      string
	SourceIDs []int64
	Embedding []float32
}

type FindSimilarInput struct {
	Texts       []string
	Vectors     [][]float32
	Limit       int
	DistanceMax *float64
}

type IngestionService interface {
	AddCollection(ctx context.Context, in AddCollectionInput) (AddCollectionResult, error)
	AddThought(ctx context.Context, in AddThoughtInput) (int64, error)
	LinkSources(ctx context.Context, parentID, childID int64) error
	ThoughtsForSource(ctx context.Context, sourceID int64) ([]*domain.Thought, error)
	SourcesForThought(ctx context.Context, thoughtID int64) ([]*domain.Source, error)
	FindSimilar(ctx context.Context, in FindSimilarInput) ([]NeighborResult, error)
}

type ingestionService struct {
	log        *logger.Logger
	cfg        IngestionConfig
	tx         aggregates.TxRunner
	catalog    *catalog.Catalog
	resolver   SourceResolver
	dedup      Deduplicator
	embedder   Embedder
	sources    knowledge.SourceRepo
	thoughts   knowledge.ThoughtRepo
	graph      graph.Mutator
	projection graph.Projection
}

func NewIngestionService(
	log *logger.Logger,
	cfg IngestionConfig,
	tx aggregates.TxRunner,
	cat *catalog.Catalog,
	resolver SourceResolver,
	dedup Deduplicator,
	embedder Embedder,
	sources knowledge.SourceRepo,
	thoughts knowledge.ThoughtRepo,
	mutator graph.Mutator,
	projection graph.Projection,
) IngestionService {
	if cfg.SimilarDefaultLimit <= 0 {
		cfg.SimilarDefaultLimit = 5
	}
	return &ingestionService{
		log:        log.With("service", "IngestionService"),
		cfg:        cfg,
		tx:         tx,
		catalog:    cat,
		resolver:   resolver,
		dedup:      dedup,
		embedder:   embedder,
		sources:    sources,
		thoughts:   thoughts,
		graph:      mutator,
		projection: projection,
	}
}

func (s *ingestionService) AddCollection(ctx context.Context, in AddCollectionInput) (res AddCollectionResult, err error) {
	const op = "ingestion.add_collection"
	ctx, span := observability.StartSpan(ctx, op,
		attribute.String("source.type", in.SourceType),
		attribute.Int("texts", len(in.Texts)),
	)
	defer func() { observability.EndSpan(span, err) }()

	identity, err := s.catalog.Resolve(in.SourceType, in.Identifiers)
	if err != nil {
		return res, err
	}
	for i, t := range in.Texts {
		if strings.TrimSpace(t) == "" {
			return res, domain.Errorf(domain.CodeValidation, op, "text %d is empty", i)
		}
	}
	vectors, err := s.embed(ctx, op, in.Texts)
	if err != nil {
		return res, err
	}

	var src *domain.Source
	var touched []*domain.Thought
	var thoughtIDs []int64
	err = s.tx.InTx(aggregates.WithOperation(ctx, op), func(dbc dbctx.Context) error {
		// Reset per attempt; the runner may retry.
		thoughtIDs = make([]int64, 0, len(in.Texts))
		touched = touched[:0]
		var err error
		src, err = s.resolver.ResolveOrCreate(dbc, identity, in.Contents)
		if err != nil {
			return err
		}
		for i, text := range in.Texts {
			th, err := s.attach(dbc, text, vectors[i], []int64{src.ID})
			if err != nil {
				return err
			}
			thoughtIDs = append(thoughtIDs, th.ID)
			touched = append(touched, th)
		}
		return nil
	})
	if err != nil {
		s.log.For(ctx).Error("Add collection failed", "source_type", identity.Type, "texts", len(in.Texts), "error", err)
		return res, err
	}

	s.project(ctx, src, touched)
	s.log.Info("Collection added", "source_id", src.ID, "thoughts", len(thoughtIDs))
	return AddCollectionResult{SourceIDs: []int64{src.ID}, ThoughtIDs: thoughtIDs}, nil
}

func (s *ingestionService) AddThought(ctx context.Context, in AddThoughtInput) (id int64, err error) {
	const op = "ingestion.add_thought"
	ctx, span := observability.StartSpan(ctx, op, attribute.Int("sources", len(in.SourceIDs)))
	defer func() { observability.EndSpan(span, err) }()

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return 0, domain.Errorf(domain.CodeValidation, op, "text is required")
	}
	sourceIDs := uniqueIDs(in.SourceIDs)
	if len(sourceIDs) == 0 {
		return 0, domain.Errorf(domain.CodeInvalidIdentity, op, "at least one source id is required")
	}
	vec := in.Embedding
	if len(vec) == 0 {
		vectors, err := s.embed(ctx, op, []string{text})
		if err != nil {
			return 0, err
		}
		vec = vectors[0]
	} else if err := s.checkDimension(op, vec); err != nil {
		return 0, err
	}

	var th *domain.Thought
	var srcs []*domain.Source
	err = s.tx.InTx(aggregates.WithOperation(ctx, op), func(dbc dbctx.Context) error {
		var err error
		srcs, err = s.sources.GetByIDs(dbc, sourceIDs)
		if err != nil {
			return aggregates.MapError(op, err)
		}
		if len(srcs) != len(sourceIDs) {
			return domain.Errorf(domain.CodeNotFound, op, "one or more sources do not exist")
		}
		th, err = s.attach(dbc, text, vec, sourceIDs)
		return err
	})
	if err != nil {
		s.log.For(ctx).Error("Add thought failed", "sources", sourceIDs, "error", err)
		return 0, err
	}
	for _, src := range srcs {
		s.project(ctx, src, []*domain.Thought{th})
	}
	return th.ID, nil
}

// attach reuses a near-duplicate thought or inserts a new one, then links it
// to every source. It runs inside the caller's transaction.
func (s *ingestionService) attach(dbc dbctx.Context, text string, vec []float32, sourceIDs []int64) (*domain.Thought, error) {
	const op = "ingestion.attach"
	found, err := s.dedup.FindNeighbors(dbc, []Candidate{{Text: text, Vector: vec}}, NeighborQuery{
		DistanceMax: s.cfg.DuplicateDistance,
		Limit:       1,
		Strict:      true,
	})
	if err != nil {
		return nil, err
	}

	var th *domain.Thought
	if len(found) == 1 && len(found[0].Neighbors) > 0 {
		n := found[0].Neighbors[0]
		s.log.Debug("Duplicate thought reused", "thought_id", n.ID, "distance", n.Distance)
		th = &domain.Thought{ID: n.ID, Text: n.Text}
	} else {
		th = &domain.Thought{Text: text, Embedding: pgvector.NewVector(vec)}
		if err := s.thoughts.Create(dbc, th); err != nil {
			return nil, aggregates.MapError(op, err)
		}
		if err := s.graph.CreateThoughtVertex(dbc, th.ID); err != nil {
			return nil, domain.Wrap(domain.CodeStorage, op, err)
		}
	}
	for _, sid := range sourceIDs {
		if err := s.graph.LinkSourceThought(dbc, sid, th.ID); err != nil {
			return nil, domain.Wrap(domain.CodeStorage, op, err)
		}
	}
	return th, nil
}

func (s *ingestionService) LinkSources(ctx context.Context, parentID, childID int64) (err error) {
	const op = "ingestion.link_sources"
	ctx, span := observability.StartSpan(ctx, op)
	defer func() { observability.EndSpan(span, err) }()

	if parentID <= 0 || childID <= 0 || parentID == childID {
		return domain.Errorf(domain.CodeInvalidIdentity, op, "source ids not valid: %d, %d", parentID, childID)
	}
	err = s.tx.InTx(aggregates.WithOperation(ctx, op), func(dbc dbctx.Context) error {
		rows, err := s.sources.GetByIDs(dbc, []int64{parentID, childID})
		if err != nil {
			return aggregates.MapError(op, err)
		}
		if len(rows) != 2 {
			return domain.Errorf(domain.CodeNotFound, op, "parent or child source does not exist")
		}
		if err := s.graph.LinkSourceContains(dbc, parentID, childID); err != nil {
			return domain.Wrap(domain.CodeStorage, op, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if perr := s.projection.ProjectContains(ctx, parentID, childID); perr != nil {
		s.log.For(ctx).Warn("neo4j contains projection failed (continuing)", "parent_id", parentID, "child_id", childID, "error", perr)
	}
	return nil
}

func (s *ingestionService) ThoughtsForSource(ctx context.Context, sourceID int64) ([]*domain.Thought, error) {
	const op = "ingestion.thoughts_for_source"
	dbc := dbctx.Context{Ctx: ctx}
	src, err := s.sources.GetByID(dbc, sourceID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if src == nil {
		return nil, domain.Errorf(domain.CodeNotFound, op, "source %d not found", sourceID)
	}
	ids, err := s.graph.ThoughtIDsForSource(dbc, sourceID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeStorage, op, err)
	}
	rows, err := s.thoughts.GetByIDs(dbc, ids)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

func (s *ingestionService) SourcesForThought(ctx context.Context, thoughtID int64) ([]*domain.Source, error) {
	const op = "ingestion.sources_for_thought"
	dbc := dbctx.Context{Ctx: ctx}
	th, err := s.thoughts.GetByID(dbc, thoughtID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if th == nil {
		return nil, domain.Errorf(domain.CodeNotFound, op, "thought %d not found", thoughtID)
	}
	ids, err := s.graph.SourceIDsForThought(dbc, thoughtID)
	if err != nil {
		return nil, domain.Wrap(domain.CodeStorage, op, err)
	}
	rows, err := s.sources.GetByIDs(dbc, ids)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

// FindSimilar is the read-only similarity search. Per-candidate failures are
// reported in the result rather than failing the call.
func (s *ingestionService) FindSimilar(ctx context.Context, in FindSimilarInput) (out []NeighborResult, err error) {
	const op = "ingestion.find_similar"
	ctx, span := observability.StartSpan(ctx, op, attribute.Int("texts", len(in.Texts)))
	defer func() { observability.EndSpan(span, err) }()

	if len(in.Texts) == 0 {
		return []NeighborResult{}, nil
	}
	vectors := in.Vectors
	if len(vectors) == 0 {
		vectors, err = s.embed(ctx, op, in.Texts)
		if err != nil {
			return nil, err
		}
	} else if len(vectors) != len(in.Texts) {
		return nil, domain.Errorf(domain.CodeValidation, op, "got %d vectors for %d texts", len(vectors), len(in.Texts))
	}
	limit := in.Limit
	if limit <= 0 {
		limit = s.cfg.SimilarDefaultLimit
	}
	maxDist := 2.0
	if in.DistanceMax != nil {
		maxDist = *in.DistanceMax
	}
	cands := make([]Candidate, len(in.Texts))
	for i := range in.Texts {
		cands[i] = Candidate{Text: in.Texts[i], Vector: vectors[i]}
	}
	return s.dedup.FindNeighbors(dbctx.Context{Ctx: ctx}, cands, NeighborQuery{DistanceMax: maxDist, Limit: limit})
}

// embed makes one gateway call for the batch and checks count and dimension.
func (s *ingestionService) embed(ctx context.Context, op string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		s.log.For(ctx).Error("Embedding request failed", "texts", len(texts), "error", err)
		return nil, domain.Wrap(domain.CodeUpstream, op, err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.Errorf(domain.CodeEmbeddingCountMismatch, op, "embedding gateway returned %d vectors for %d inputs", len(vectors), len(texts))
	}
	for _, v := range vectors {
		if err := s.checkDimension(op, v); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

func (s *ingestionService) checkDimension(op string, vec []float32) error {
	if s.cfg.Dimension > 0 && len(vec) != s.cfg.Dimension {
		return domain.Errorf(domain.CodeDimensionMismatch, op, "embedding has %d dimensions, want %d", len(vec), s.cfg.Dimension)
	}
	return nil
}

func (s *ingestionService) project(ctx context.Context, src *domain.Source, thoughts []*domain.Thought) {
	if err := s.projection.ProjectDerivations(ctx, src, thoughts); err != nil {
		s.log.For(ctx).Warn("neo4j derivation projection failed (continuing)", "source_id", src.ID, "error", err)
	}
}

func uniqueIDs(in []int64) []int64 {
	seen := make(map[int64]bool, len(in))
	out := make([]int64, 0, len(in))
	for _, id := range in {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
