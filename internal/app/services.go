package app

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/catalog"
	"github.com/yungbote/conscious-backend/internal/data/aggregates"
	"github.com/yungbote/conscious-backend/internal/data/graph"
	"github.com/yungbote/conscious-backend/internal/platform/fsrs"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
	"github.com/yungbote/conscious-backend/internal/platform/redisx"
	"github.com/yungbote/conscious-backend/internal/services"
)

type Services struct {
	Ingestion  services.IngestionService
	Extraction services.ExtractionService
	AddData    services.AddDataService
	Review     services.ReviewService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, cat *catalog.Catalog, clients Clients, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	mutator, err := graph.NewAGEMutator(db, cfg.GraphName, log)
	if err != nil {
		return Services{}, fmt.Errorf("init graph mutator: %w", err)
	}
	projection := graph.NewNeo4jProjection(clients.Neo4j, log)

	var embedder services.Embedder = clients.OpenAI
	if clients.Redis != nil {
		embedder = redisx.NewEmbedCache(clients.OpenAI, clients.Redis, cfg.OpenAI.EmbedModel, cfg.EmbedCacheTTL, log)
	}

	weights, err := cfg.SRSWeightList()
	if err != nil {
		return Services{}, fmt.Errorf("init scheduler: %w", err)
	}
	scheduler, err := fsrs.New(fsrs.Config{
		Weights:          weights,
		DesiredRetention: cfg.SRSDesiredRetention,
		MaxIntervalDays:  cfg.SRSMaxIntervalDays,
		EnableFuzz:       cfg.SRSEnableFuzz,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init scheduler: %w", err)
	}

	tx := aggregates.NewRetryingTxRunner(aggregates.NewGormTxRunner(db), aggregates.RetryConfig{
		MaxAttempts: cfg.TxMaxAttempts,
		Backoff:     50 * time.Millisecond,
		Hooks:       aggregates.NewLogHooks(log),
	})
	resolver := services.NewSourceResolver(log, repos.Sources, mutator)
	dedup := services.NewDeduplicator(services.NewPGVectorIndex(repos.Thoughts), cfg.VectorDimension, log)
	archiver := services.NewArchiver(log, clients.Archive, cfg.ArchiveWorkers)

	ingestion := services.NewIngestionService(log, services.IngestionConfig{
		Dimension:           cfg.VectorDimension,
		DuplicateDistance:   cfg.DuplicateDistance,
		SimilarDefaultLimit: cfg.SimilarDefaultLimit,
	}, tx, cat, resolver, dedup, embedder, repos.Sources, repos.Thoughts, mutator, projection)

	return Services{
		Ingestion:  ingestion,
		Extraction: services.NewExtractionService(log, cat, clients.OpenAI, archiver, ingestion),
		AddData:    services.NewAddDataService(log, cat, archiver, ingestion),
		Review: services.NewReviewService(log, services.ReviewConfig{
			DefaultFetch: cfg.ReviewDefaultFetch,
			MaxFetch:     cfg.ReviewMaxFetch,
		}, tx, repos.Thoughts, repos.ReviewLogs, scheduler),
	}, nil
}
