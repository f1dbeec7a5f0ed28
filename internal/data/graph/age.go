package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/conscious-backend/internal/data/db"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
	"github.com/yungbote/conscious-backend/internal/platform/logger"
)

const (
	LabelSource   = "Source"
	LabelThought  = "Thought"
	EdgeDerivedTo = "DERIVED_TO"
	EdgeContains  = "CONTAINS"
)

// Mutator mirrors sources and thoughts into the graph. Every call runs on
// dbc.Tx when set, so graph and relational writes commit or roll back together.
type Mutator interface {
	CreateSourceVertex(dbc dbctx.Context, src *domain.Source) error
	CreateThoughtVertex(dbc dbctx.Context, thoughtID int64) error
	// LinkSourceThought adds one (source)-[:DERIVED_TO]->(thought) edge per call.
	LinkSourceThought(dbc dbctx.Context, sourceID, thoughtID int64) error
	// LinkSourceContains merges (parent)-[:CONTAINS]->(child).
	LinkSourceContains(dbc dbctx.Context, parentID, childID int64) error

	ThoughtIDsForSource(dbc dbctx.Context, sourceID int64) ([]int64, error)
	SourceIDsForThought(dbc dbctx.Context, thoughtID int64) ([]int64, error)
}

// Statement is a cypher query plus its parameter map. Values never appear
// in the query text.
type Statement struct {
	Query  string
	Params map[string]interface{}
}

const (
	createSourceQuery  = `CREATE (s:Source {pg_table_id: $pg_table_id, type: $type, identifier: $identifier, guid: $guid, created_at: $created_at}) RETURN id(s)`
	createThoughtQuery = `CREATE (t:Thought {pg_table_id: $pg_table_id}) RETURN id(t)`
	linkDerivedQuery   = `MATCH (s:Source {pg_table_id: $source_id}), (t:Thought {pg_table_id: $thought_id}) CREATE (s)-[e:DERIVED_TO]->(t) RETURN id(e)`
	linkContainsQuery  = `MATCH (p:Source {pg_table_id: $parent_id}), (c:Source {pg_table_id: $child_id}) MERGE (p)-[e:CONTAINS]->(c) RETURN id(e)`
	thoughtsOfSource   = `MATCH (s:Source {pg_table_id: $source_id})-[:DERIVED_TO]->(t:Thought) RETURN DISTINCT t.pg_table_id`
	sourcesOfThought   = `MATCH (s:Source)-[:DERIVED_TO]->(t:Thought {pg_table_id: $thought_id}) RETURN DISTINCT s.pg_table_id`
)

func CreateSourceStatement(src *domain.Source) Statement {
	return Statement{Query: createSourceQuery, Params: map[string]interface{}{
		"pg_table_id": src.ID,
		"type":        src.Type,
		"identifier":  src.Identifier,
		"guid":        src.GUID.String(),
		"created_at":  src.CreatedAt.UTC().Format(time.RFC3339Nano),
	}}
}

func CreateThoughtStatement(thoughtID int64) Statement {
	return Statement{Query: createThoughtQuery, Params: map[string]interface{}{"pg_table_id": thoughtID}}
}

func LinkSourceThoughtStatement(sourceID, thoughtID int64) Statement {
	return Statement{Query: linkDerivedQuery, Params: map[string]interface{}{"source_id": sourceID, "thought_id": thoughtID}}
}

func LinkSourceContainsStatement(parentID, childID int64) Statement {
	return Statement{Query: linkContainsQuery, Params: map[string]interface{}{"parent_id": parentID, "child_id": childID}}
}

// SQL wraps the statement in the AGE cypher() call. The graph name is the
// only interpolated value and must be a validated identifier.
func (s Statement) SQL(graph string) (string, string, error) {
	if !db.ValidIdentifier(graph) {
		return "", "", fmt.Errorf("invalid graph name %q", graph)
	}
	if strings.Contains(s.Query, "$$") || strings.Contains(s.Query, "?") {
		return "", "", fmt.Errorf("cypher query must not contain $$ or ?")
	}
	raw, err := json.Marshal(s.Params)
	if err != nil {
		return "", "", fmt.Errorf("encode cypher params: %w", err)
	}
	sql := fmt.Sprintf(`SELECT * FROM cypher('%s', $$ %s $$, ?) AS (v agtype)`, graph, s.Query)
	return sql, string(raw), nil
}

type ageMutator struct {
	db    *gorm.DB
	graph string
	log   *logger.Logger
}

func NewAGEMutator(db *gorm.DB, graphName string, baseLog *logger.Logger) (Mutator, error) {
	if _, _, err := (Statement{Query: createThoughtQuery}).SQL(graphName); err != nil {
		return nil, err
	}
	return &ageMutator{db: db, graph: graphName, log: baseLog.With("graph", "AGEMutator", "name", graphName)}, nil
}

// run executes st and returns the raw agtype values of the result column.
func (m *ageMutator) run(dbc dbctx.Context, st Statement) ([]string, error) {
	sql, params, err := st.SQL(m.graph)
	if err != nil {
		return nil, err
	}
	rows, err := dbc.DB(m.db).Raw(sql, params).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// write runs st and requires at least one returned row: a MATCH that finds
// no vertex yields no rows and must not pass silently.
func (m *ageMutator) write(dbc dbctx.Context, op string, st Statement) error {
	res, err := m.run(dbc, st)
	if err != nil {
		m.log.Error("Graph write failed", "op", op, "error", err)
		return domain.Wrap(domain.CodeStorage, op, err)
	}
	if len(res) == 0 {
		return domain.Errorf(domain.CodeNotFound, op, "graph statement matched no vertices (params %v)", st.Params)
	}
	return nil
}

func (m *ageMutator) CreateSourceVertex(dbc dbctx.Context, src *domain.Source) error {
	if src == nil || src.ID <= 0 {
		return domain.NewError(domain.CodeInvalidIdentity, "graph.create_source", "source has no id", nil)
	}
	return m.write(dbc, "graph.create_source", CreateSourceStatement(src))
}

func (m *ageMutator) CreateThoughtVertex(dbc dbctx.Context, thoughtID int64) error {
	if thoughtID <= 0 {
		return domain.NewError(domain.CodeValidation, "graph.create_thought", "thought has no id", nil)
	}
	return m.write(dbc, "graph.create_thought", CreateThoughtStatement(thoughtID))
}

func (m *ageMutator) LinkSourceThought(dbc dbctx.Context, sourceID, thoughtID int64) error {
	return m.write(dbc, "graph.link_source_thought", LinkSourceThoughtStatement(sourceID, thoughtID))
}

func (m *ageMutator) LinkSourceContains(dbc dbctx.Context, parentID, childID int64) error {
	return m.write(dbc, "graph.link_source_contains", LinkSourceContainsStatement(parentID, childID))
}

func (m *ageMutator) ThoughtIDsForSource(dbc dbctx.Context, sourceID int64) ([]int64, error) {
	return m.ids(dbc, "graph.thoughts_of_source", Statement{Query: thoughtsOfSource, Params: map[string]interface{}{"source_id": sourceID}})
}

func (m *ageMutator) SourceIDsForThought(dbc dbctx.Context, thoughtID int64) ([]int64, error) {
	return m.ids(dbc, "graph.sources_of_thought", Statement{Query: sourcesOfThought, Params: map[string]interface{}{"thought_id": thoughtID}})
}

func (m *ageMutator) ids(dbc dbctx.Context, op string, st Statement) ([]int64, error) {
	res, err := m.run(dbc, st)
	if err != nil {
		return nil, domain.Wrap(domain.CodeStorage, op, err)
	}
	out := make([]int64, 0, len(res))
	for _, raw := range res {
		id, err := ParseAGInt(raw)
		if err != nil {
			return nil, domain.Wrap(domain.CodeStorage, op, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// ParseAGInt decodes an agtype integer, which may carry a ::integer suffix.
func ParseAGInt(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "::integer")
	s = strings.Trim(s, `"`)
	return strconv.ParseInt(s, 10, 64)
}
