// Package workflow implements the detection preparation and monitoring flow:
// search for candidate fix commits, select and edit a patch, submit a
// detection job, then poll the backend's status until results arrive.
package workflow

import (
	"errors"

	"github.com/CosmoTheDev/cgconsole/internal/api"
)

var (
	// ErrNoCandidates is returned when a search succeeds but yields no commits.
	ErrNoCandidates = errors.New("search returned no candidate commits")
	// ErrStale marks a selection response superseded by a later selection.
	ErrStale = errors.New("selection superseded by a newer one")
	// ErrUnknownMethod rejects a submission whose method is not enumerated.
	ErrUnknownMethod = errors.New("unknown detection method")
	// ErrInvalidDate rejects a cutoff date in no accepted layout.
	ErrInvalidDate = errors.New("invalid cutoff date")
	// ErrAlreadyPolling is returned by Start while a subscription is live.
	ErrAlreadyPolling = errors.New("status poller already running")
)

// View is the console view a workflow step leads to.
type View int

const (
	ViewPrepare View = iota
	ViewMonitoring
)

func (v View) String() string {
	if v == ViewMonitoring {
		return "monitoring"
	}
	return "prepare"
}

// Prep is the preparation state: the last search inputs, its candidate
// commits, the active candidate and the patch buffer. Transitions return a
// new value and never modify the receiver's candidate slice.
type Prep struct {
	BugID      string
	Project    string
	Candidates []string
	Active     string
	Patch      string

	// seq is the number of the most recently issued selection.
	seq uint64
}

// withSearch replaces the candidate set and patch from a search result and
// makes the first candidate active.
func (p Prep) withSearch(bugID, project string, res api.SearchResult) Prep {
	next := p
	next.BugID = bugID
	next.Project = project
	next.Candidates = append([]string(nil), res.Commits...)
	next.Patch = res.Patch
	next.Active = ""
	if len(next.Candidates) > 0 {
		next.Active = next.Candidates[0]
	}
	return next
}

// beginSelect marks commit active and issues a new selection number.
// Membership in Candidates is not enforced.
func (p Prep) beginSelect(commit string) (Prep, uint64) {
	next := p
	next.seq++
	next.Active = commit
	return next, next.seq
}

// applySelect installs the patch for selection seq, discarding any edits,
// unless a later selection has been issued since.
func (p Prep) applySelect(seq uint64, patch string) (Prep, error) {
	if seq != p.seq {
		return p, ErrStale
	}
	next := p
	next.Patch = patch
	return next, nil
}

func (p Prep) withPatch(text string) Prep {
	next := p
	next.Patch = text
	return next
}
