package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
	"github.com/yungbote/conscious-backend/internal/platform/neo4jdb"
)

// Projection is a read-optimized copy of the source/thought graph kept in
// neo4j. It is written after commit and is never authoritative.
type Projection interface {
	ProjectDerivations(ctx context.Context, src *domain.Source, thoughts []*domain.Thought) error
	ProjectContains(ctx context.Context, parentID, childID int64) error
}

type neo4jProjection struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

// NewNeo4jProjection returns a projection writer. A nil client makes every
// call a no-op.
func NewNeo4jProjection(client *neo4jdb.Client, baseLog *logger.Logger) Projection {
	return &neo4jProjection{client: client, log: baseLog.With("graph", "Neo4jProjection")}
}

func (p *neo4jProjection) enabled() bool {
	return p != nil && p.client != nil && p.client.Driver != nil
}

func (p *neo4jProjection) session(ctx context.Context) neo4j.SessionWithContext {
	return p.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: p.client.Database,
	})
}

func (p *neo4jProjection) ensureSchema(ctx context.Context, session neo4j.SessionWithContext) {
	for _, stmt := range []string{
		`CREATE CONSTRAINT source_pg_id_unique IF NOT EXISTS FOR (s:Source) REQUIRE s.pg_table_id IS UNIQUE`,
		`CREATE CONSTRAINT thought_pg_id_unique IF NOT EXISTS FOR (t:Thought) REQUIRE t.pg_table_id IS UNIQUE`,
	} {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			p.log.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

func (p *neo4jProjection) ProjectDerivations(ctx context.Context, src *domain.Source, thoughts []*domain.Thought) error {
	if !p.enabled() || src == nil || src.ID <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	nodes := make([]map[string]any, 0, len(thoughts))
	seen := map[int64]bool{}
	for _, t := range thoughts {
		if t == nil || t.ID <= 0 || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		nodes = append(nodes, map[string]any{
			"pg_table_id": t.ID,
			"text":        t.Text,
			"synced_at":   now,
		})
	}
	source := map[string]any{
		"pg_table_id": src.ID,
		"type":        src.Type,
		"identifier":  src.Identifier,
		"guid":        src.GUID.String(),
		"synced_at":   now,
	}

	session := p.session(ctx)
	defer session.Close(ctx)
	p.ensureSchema(ctx, session)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (s:Source {pg_table_id: $source.pg_table_id})
SET s += $source
`, map[string]any{"source": source})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			return nil, nil
		}
		res, err = tx.Run(ctx, `
MATCH (s:Source {pg_table_id: $source_id})
UNWIND $nodes AS n
MERGE (t:Thought {pg_table_id: n.pg_table_id})
SET t += n
MERGE (s)-[:DERIVED_TO]->(t)
`, map[string]any{"source_id": src.ID, "nodes": nodes})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

func (p *neo4jProjection) ProjectContains(ctx context.Context, parentID, childID int64) error {
	if !p.enabled() || parentID <= 0 || childID <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	session := p.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (p:Source {pg_table_id: $parent_id})
MERGE (c:Source {pg_table_id: $child_id})
MERGE (p)-[:CONTAINS]->(c)
`, map[string]any{"parent_id": parentID, "child_id": childID})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}
