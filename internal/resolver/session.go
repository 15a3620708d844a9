package resolver

import (
	"github.com/specialistvlad/gasgen/internal/graphir"
	"github.com/specialistvlad/gasgen/internal/kind"
	"github.com/specialistvlad/gasgen/internal/manifest"
)

type compiledGraph struct {
	graph *graphir.Graph
	err   error
}

// Session is the per-run memo state.
type Session struct {
	generated map[string]struct{}
	parents   map[string]DependencyRef
	graphs    map[string]compiledGraph
}

// NewSession returns an empty session.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset clears every cache. Pipeline.Run calls it first.
func (s *Session) Reset() {
	s.generated = map[string]struct{}{}
	s.parents = map[string]DependencyRef{}
	s.graphs = map[string]compiledGraph{}
}

// MarkGenerated records that a record's artifact exists for the rest of the
// run.
func (s *Session) MarkGenerated(k kind.Kind, name string) {
	s.generated[manifest.RecordKey(k, name)] = struct{}{}
}

// Generated reports whether a record was generated earlier in the run.
func (s *Session) Generated(k kind.Kind, name string) bool {
	_, ok := s.generated[manifest.RecordKey(k, name)]
	return ok
}

// GeneratedCount is the number of records marked so far.
func (s *Session) GeneratedCount() int { return len(s.generated) }
