package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/domain"
)

type MigrateOptions struct {
	GraphName       string
	VectorDimension int
}

// AutoMigrateAll creates the tables. On postgres it also installs the vector
// and age extensions, pins the embedding dimension, builds the cosine HNSW
// index and creates the graph.
func AutoMigrateAll(db *gorm.DB, opts MigrateOptions) error {
	isPostgres := db.Dialector.Name() == "postgres"
	if isPostgres {
		if err := EnsureExtensions(db); err != nil {
			return err
		}
	}
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return err
	}
	if !isPostgres {
		return nil
	}
	if err := EnsureVectorIndexes(db, opts.VectorDimension); err != nil {
		return err
	}
	return EnsureGraph(db, opts.GraphName)
}

func EnsureExtensions(db *gorm.DB) error {
	for _, ext := range []string{"vector", "age"} {
		if err := db.Exec(fmt.Sprintf(`CREATE EXTENSION IF NOT EXISTS %s;`, ext)).Error; err != nil {
			return fmt.Errorf("enable %s: %w", ext, err)
		}
	}
	return nil
}

func EnsureVectorIndexes(db *gorm.DB, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("vector dimension must be positive, got %d", dim)
	}
	if err := db.Exec(fmt.Sprintf(`ALTER TABLE thought ALTER COLUMN embedding TYPE vector(%d);`, dim)).Error; err != nil {
		return fmt.Errorf("pin thought.embedding dimension: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_thought_embedding_cosine
		ON thought
		USING hnsw (embedding vector_cosine_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_thought_embedding_cosine: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_thought_due_queue
		ON thought (srs_due ASC NULLS LAST, id ASC)
		WHERE srs_discard IS NOT TRUE;
	`).Error; err != nil {
		return fmt.Errorf("create idx_thought_due_queue: %w", err)
	}
	return nil
}

// EnsureGraph creates the named AGE graph when it does not exist yet.
func EnsureGraph(db *gorm.DB, graph string) error {
	if !ValidIdentifier(graph) {
		return fmt.Errorf("invalid graph name %q", graph)
	}
	var n int64
	if err := db.Raw(`SELECT count(*) FROM ag_catalog.ag_graph WHERE name = ?`, graph).Scan(&n).Error; err != nil {
		return fmt.Errorf("lookup graph %s: %w", graph, err)
	}
	if n > 0 {
		return nil
	}
	if err := db.Exec(`SELECT ag_catalog.create_graph(?)`, graph).Error; err != nil {
		return fmt.Errorf("create graph %s: %w", graph, err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll(opts MigrateOptions) error {
	s.log.Info("Auto migrating postgres tables...", "graph", opts.GraphName, "vector_dimension", opts.VectorDimension)
	if err := AutoMigrateAll(s.db, opts); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
