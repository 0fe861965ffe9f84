// Package session keeps one lineage index and one displayed graph per
// browser session and serializes the calls that mutate them.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"lineageviz/internal/graph"
	"lineageviz/internal/lineage"
	"lineageviz/internal/logger"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrNoData       = errors.New("no lineage loaded")
	ErrUnknownTable = errors.New("unknown table")
)

// View is what a client needs to draw a session.
type View struct {
	ID     string         `json:"id"`
	Source string         `json:"source,omitempty"`
	Table  string         `json:"table,omitempty"`
	Tables []string       `json:"tables"`
	Graph  graph.Snapshot `json:"graph"`
}

// Session owns the lineage loaded by one client and the graph it explores.
type Session struct {
	ID string

	mu      sync.Mutex
	index   *lineage.Index
	builder *graph.Builder
	source  string
	table   string
}

// Load replaces the session's lineage with rows and shows the first table.
func (s *Session) Load(rows []lineage.RawRow, source string) View {
	idx := lineage.Build(rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(idx, source, "")
	logger.Info("session %s: loaded %d rows from %s (%d columns, %d tables)",
		s.ID, len(rows), source, idx.Len(), len(idx.Tables()))
	return s.view()
}

// load must be called with s.mu held. An initial table the index does not
// know falls back to the first table.
func (s *Session) load(idx *lineage.Index, source, initial string) {
	s.index = idx
	s.builder = graph.NewBuilder(idx)
	s.source = source
	s.table = ""

	if initial == "" || !idx.HasTable(initial) {
		tables := idx.Tables()
		if len(tables) == 0 {
			return
		}
		initial = tables[0]
	}
	s.table = initial
	s.builder.Reset(initial)
}

// Reset shows table with its columns collapsed.
func (s *Session) Reset(table string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return View{}, ErrNoData
	}
	if !s.index.HasTable(table) {
		return View{}, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	s.table = table
	s.builder.Reset(table)
	return s.view(), nil
}

// Expand reveals the upstream columns of nodeID.
func (s *Session) Expand(nodeID string) (bool, graph.Snapshot, error) {
	return s.mutate("expand", nodeID, (*graph.Builder).Expand)
}

// Collapse hides the upstream columns of nodeID.
func (s *Session) Collapse(nodeID string) (bool, graph.Snapshot, error) {
	return s.mutate("collapse", nodeID, (*graph.Builder).Collapse)
}

// Toggle expands or collapses nodeID.
func (s *Session) Toggle(nodeID string) (bool, graph.Snapshot, error) {
	return s.mutate("toggle", nodeID, (*graph.Builder).Toggle)
}

func (s *Session) mutate(op, nodeID string, fn func(*graph.Builder, string) bool) (bool, graph.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return false, graph.Snapshot{}, ErrNoData
	}
	changed := fn(s.builder, nodeID)
	logger.Debug("session %s: %s %q changed=%v", s.ID, op, nodeID, changed)
	return changed, s.builder.Snapshot(), nil
}

// Graph returns the current graph.
func (s *Session) Graph() graph.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.builder == nil {
		return emptySnapshot()
	}
	return s.builder.Snapshot()
}

// Tables returns the sorted table identities of the loaded lineage.
func (s *Session) Tables() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil, ErrNoData
	}
	return s.index.Tables(), nil
}

// View returns the session state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	v := View{ID: s.ID, Source: s.source, Table: s.table, Tables: []string{}, Graph: emptySnapshot()}
	if s.index != nil {
		v.Tables = s.index.Tables()
		v.Graph = s.builder.Snapshot()
	}
	return v
}

func emptySnapshot() graph.Snapshot {
	return graph.Snapshot{Nodes: []graph.NodeView{}, Edges: []graph.EdgeView{}}
}

// Store holds the live sessions. New sessions start from the default
// lineage, if one is set.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	defIndex  *lineage.Index
	defSource string
	defTable  string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// SetDefault sets the lineage new sessions start with.
func (st *Store) SetDefault(rows []lineage.RawRow, source, initialTable string) {
	idx := lineage.Build(rows)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.defIndex = idx
	st.defSource = source
	st.defTable = initialTable
}

// Create starts a new session.
func (st *Store) Create() *Session {
	s := &Session{ID: uuid.NewString()}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.defIndex != nil {
		s.load(st.defIndex, st.defSource, st.defTable)
	}
	st.sessions[s.ID] = s
	logger.Debug("session %s created", s.ID)
	return s
}

// Get returns the session with id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete drops the session with id and reports whether it existed.
func (st *Store) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
