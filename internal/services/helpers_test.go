package services

import (
	"encoding/json"
	"testing"

	"github.com/yungbote/conscious-backend/internal/data/graph"
	"github.com/yungbote/conscious-backend/internal/data/graph/graphtest"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

func dbcOf(h *harness) dbctx.Context { return dbctx.Context{Ctx: h.ctx} }

func graphEdge(sourceID, thoughtID int64) graphtest.Edge {
	return graphtest.Edge{Label: graph.EdgeDerivedTo, From: sourceID, To: thoughtID}
}

func containsEdge(parentID, childID int64) graphtest.Edge {
	return graphtest.Edge{Label: graph.EdgeContains, From: parentID, To: childID}
}

func decodeProps(t *testing.T, src *domain.Source) domain.SourceProperties {
	t.Helper()
	var p domain.SourceProperties
	if err := json.Unmarshal(src.Properties, &p); err != nil {
		t.Fatalf("decode properties: %v", err)
	}
	return p
}
