package session

import (
	"fmt"
	"sync"
	"time"

	appErr "github.com/xxxsen/proofnote/internal/pkg/errors"
)

type State string

const (
	StateIdle        State = "idle"
	StateRequesting  State = "requesting"
	StateReconciling State = "reconciling"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

func (s State) Active() bool {
	return s == StateRequesting || s == StateReconciling
}

type Snapshot struct {
	NoteID   string `json:"note_id"`
	State    State  `json:"state"`
	Section  int    `json:"section"`
	Sections int    `json:"sections"`
	Progress string `json:"progress,omitempty"`
	Error    string `json:"error,omitempty"`
	Ctime    int64  `json:"ctime"`
	Mtime    int64  `json:"mtime"`
}

type entry struct {
	snap     Snapshot
	canceled bool
	updated  time.Time
}

// Registry tracks at most one correction run per note.
type Registry struct {
	mu    sync.Mutex
	items map[string]*entry
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*entry), now: time.Now}
}

// Begin starts a run for noteID. It fails with ErrInProgress while another
// run for the same note is still requesting or reconciling.
func (r *Registry) Begin(noteID string) (*Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.items[noteID]; ok && cur.snap.State.Active() {
		return nil, appErr.ErrInProgress
	}
	now := r.now()
	e := &entry{
		snap: Snapshot{
			NoteID: noteID,
			State:  StateRequesting,
			Ctime:  now.Unix(),
			Mtime:  now.Unix(),
		},
		updated: now,
	}
	r.items[noteID] = e
	return &Run{registry: r, entry: e}, nil
}

func (r *Registry) Status(noteID string) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[noteID]
	if !ok {
		return Snapshot{NoteID: noteID, State: StateIdle}
	}
	return e.snap
}

// Cancel flags the active run of noteID. It reports whether a run was
// active.
func (r *Registry) Cancel(noteID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.items[noteID]
	if !ok || !e.snap.State.Active() {
		return false
	}
	e.canceled = true
	return true
}

// Prune drops finished runs last updated more than maxAge ago.
func (r *Registry) Prune(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-maxAge)
	removed := 0
	for id, e := range r.items {
		if e.snap.State.Active() || e.updated.After(cutoff) {
			continue
		}
		delete(r.items, id)
		removed++
	}
	return removed
}

func (r *Registry) update(e *entry, fn func(e *entry)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(e)
	e.updated = r.now()
	e.snap.Mtime = e.updated.Unix()
}

// Run is the handle of one in-flight correction.
type Run struct {
	registry *Registry
	entry    *entry
}

func (run *Run) Progress(section, sections int) {
	run.registry.update(run.entry, func(e *entry) {
		e.snap.Section = section
		e.snap.Sections = sections
		e.snap.Progress = fmt.Sprintf("section %d/%d", section, sections)
	})
}

func (run *Run) Reconciling() {
	run.registry.update(run.entry, func(e *entry) {
		e.snap.State = StateReconciling
	})
}

func (run *Run) Canceled() bool {
	run.registry.mu.Lock()
	defer run.registry.mu.Unlock()
	return run.entry.canceled
}

// Finish moves the run to Done, or to Failed when err is non-nil.
func (run *Run) Finish(err error) {
	run.registry.update(run.entry, func(e *entry) {
		if err != nil {
			e.snap.State = StateFailed
			e.snap.Error = err.Error()
			return
		}
		e.snap.State = StateDone
		e.snap.Error = ""
	})
}
