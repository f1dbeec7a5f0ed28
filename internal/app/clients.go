package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/conscious-backend/internal/data/db"
	"github.com/yungbote/conscious-backend/internal/platform/gcp"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
	"github.com/yungbote/conscious-backend/internal/platform/neo4jdb"
	"github.com/yungbote/conscious-backend/internal/platform/openai"
	"github.com/yungbote/conscious-backend/internal/platform/redisx"
)

// Clients are the external connections. Redis, Neo4j and Archive are nil
// when not configured.
type Clients struct {
	Postgres *db.PostgresService
	OpenAI   openai.Client
	Redis    *goredis.Client
	Neo4j    *neo4jdb.Client
	Archive  gcp.ArchiveBucket
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	var c Clients
	var err error

	log.Info("Connecting to postgres...")
	c.Postgres, err = db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		return c, fmt.Errorf("init postgres: %w", err)
	}
	if err := c.Postgres.AutoMigrateAll(db.MigrateOptions{GraphName: cfg.GraphName, VectorDimension: cfg.VectorDimension}); err != nil {
		c.Close(ctx)
		return c, fmt.Errorf("postgres automigrate: %w", err)
	}

	c.OpenAI, err = openai.NewClient(cfg.OpenAI, log)
	if err != nil {
		c.Close(ctx)
		return c, fmt.Errorf("init openai: %w", err)
	}

	c.Redis, err = redisx.New(cfg.Redis, log)
	if err != nil {
		c.Close(ctx)
		return c, fmt.Errorf("init redis: %w", err)
	}

	c.Neo4j, err = neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		// The projection is optional; run without it.
		log.Warn("Neo4j unavailable, projection disabled", "error", err)
		c.Neo4j = nil
	}

	c.Archive, err = gcp.NewArchiveBucket(ctx, cfg.Archive, log)
	if err != nil {
		c.Close(ctx)
		return c, fmt.Errorf("init archive bucket: %w", err)
	}
	return c, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
}
