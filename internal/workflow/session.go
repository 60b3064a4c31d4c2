package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CosmoTheDev/cgconsole/internal/api"
)

// Searcher is the part of the backend the preparation steps need.
type Searcher interface {
	Search(ctx context.Context, bugID, projectName string) (api.SearchResult, error)
	ShowCommit(ctx context.Context, projectName, commit string) (string, error)
}

// Session holds the preparation state of one operator. It is safe for
// concurrent use; backend calls are made without holding the lock so
// overlapping requests are allowed.
type Session struct {
	backend Searcher

	mu   sync.Mutex
	prep Prep
}

func NewSession(backend Searcher) *Session {
	return &Session{backend: backend}
}

// Snapshot returns a copy of the current preparation state.
func (s *Session) Snapshot() Prep {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.prep
	p.Candidates = append([]string(nil), s.prep.Candidates...)
	return p
}

// Search looks up candidate fix commits. Inputs are forwarded as given.
// On failure, or when no candidates come back, the prior state is kept.
func (s *Session) Search(ctx context.Context, bugID, project string) (Prep, error) {
	res, err := s.backend.Search(ctx, bugID, project)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("search %s in %s: %w", bugID, project, err)
	}
	if len(res.Commits) == 0 {
		return s.Snapshot(), ErrNoCandidates
	}

	s.mu.Lock()
	s.prep = s.prep.withSearch(bugID, project, res)
	s.mu.Unlock()
	slog.Debug("workflow: search", "bug", bugID, "project", project, "candidates", len(res.Commits))
	return s.Snapshot(), nil
}

// SelectCommit makes commit active and loads its patch into the buffer,
// discarding unsaved edits. If another selection is issued before this one
// completes, the response is dropped and ErrStale returned.
func (s *Session) SelectCommit(ctx context.Context, commit string) (Prep, error) {
	s.mu.Lock()
	var seq uint64
	s.prep, seq = s.prep.beginSelect(commit)
	project := s.prep.Project
	s.mu.Unlock()

	patch, err := s.backend.ShowCommit(ctx, project, commit)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("show commit %s: %w", commit, err)
	}

	s.mu.Lock()
	next, err := s.prep.applySelect(seq, patch)
	s.prep = next
	s.mu.Unlock()
	if err != nil {
		slog.Debug("workflow: dropped stale selection", "commit", commit, "seq", seq)
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// EditPatch replaces the patch buffer with operator-edited text.
func (s *Session) EditPatch(text string) {
	s.mu.Lock()
	s.prep = s.prep.withPatch(text)
	s.mu.Unlock()
}

// Form prefills a submission form from the current state.
func (s *Session) Form(method, date string) Form {
	p := s.Snapshot()
	return Form{
		BugID:   p.BugID,
		Project: p.Project,
		Commit:  p.Active,
		Patch:   p.Patch,
		Method:  method,
		Date:    date,
	}
}
