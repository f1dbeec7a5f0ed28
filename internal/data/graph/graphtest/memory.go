// Package graphtest provides an in-memory graph.Mutator for tests.
package graphtest

import (
	"errors"
	"sort"
	"sync"

	"github.com/yungbote/conscious-backend/internal/data/graph"
	"github.com/yungbote/conscious-backend/internal/domain"
	"github.com/yungbote/conscious-backend/internal/platform/dbctx"
)

type Edge struct {
	Label    string
	From, To int64
}

// Memory records vertices and edges. It does not take part in the
// relational transaction, so tests check it only after success or failure.
type Memory struct {
	mu       sync.Mutex
	Sources  map[int64]*domain.Source
	Thoughts map[int64]bool
	Edges    map[Edge]int

	// FailOn makes the named method return Err.
	FailOn string
	Err    error
}

var _ graph.Mutator = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		Sources:  map[int64]*domain.Source{},
		Thoughts: map[int64]bool{},
		Edges:    map[Edge]int{},
	}
}

func (m *Memory) fail(method string) error {
	if m.FailOn != method {
		return nil
	}
	if m.Err != nil {
		return m.Err
	}
	return errors.New("graphtest: injected failure")
}

func (m *Memory) CreateSourceVertex(_ dbctx.Context, src *domain.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSourceVertex"); err != nil {
		return err
	}
	cp := *src
	m.Sources[src.ID] = &cp
	return nil
}

func (m *Memory) CreateThoughtVertex(_ dbctx.Context, thoughtID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateThoughtVertex"); err != nil {
		return err
	}
	m.Thoughts[thoughtID] = true
	return nil
}

func (m *Memory) LinkSourceThought(_ dbctx.Context, sourceID, thoughtID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("LinkSourceThought"); err != nil {
		return err
	}
	if m.Sources[sourceID] == nil || !m.Thoughts[thoughtID] {
		return domain.Errorf(domain.CodeNotFound, "graphtest.link", "missing vertex %d -> %d", sourceID, thoughtID)
	}
	// CREATE semantics: every call adds an edge.
	m.Edges[Edge{Label: graph.EdgeDerivedTo, From: sourceID, To: thoughtID}]++
	return nil
}

func (m *Memory) LinkSourceContains(_ dbctx.Context, parentID, childID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("LinkSourceContains"); err != nil {
		return err
	}
	if m.Sources[parentID] == nil || m.Sources[childID] == nil {
		return domain.Errorf(domain.CodeNotFound, "graphtest.contains", "missing vertex %d -> %d", parentID, childID)
	}
	// MERGE semantics: relinking the same pair keeps one edge.
	m.Edges[Edge{Label: graph.EdgeContains, From: parentID, To: childID}] = 1
	return nil
}

func (m *Memory) ThoughtIDsForSource(_ dbctx.Context, sourceID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for e := range m.Edges {
		if e.Label == graph.EdgeDerivedTo && e.From == sourceID {
			out = append(out, e.To)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *Memory) SourceIDsForThought(_ dbctx.Context, thoughtID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int64
	for e := range m.Edges {
		if e.Label == graph.EdgeDerivedTo && e.To == thoughtID {
			out = append(out, e.From)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// EdgeCount counts distinct edges with label.
func (m *Memory) EdgeCount(label string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for e := range m.Edges {
		if e.Label == label {
			n++
		}
	}
	return n
}
