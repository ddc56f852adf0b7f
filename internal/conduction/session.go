// Package conduction tracks which queued people have been walked to their
// table.  A Session owns the conduced-id set for one venue and day; a
// Workflow runs the optimistic confirm/rollback cycle against the system of
// record on top of it.
package conduction

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/venue-conduction-board/internal/model"
)

// State is the confirmation state of one queue item.
type State string

const (
	StateWaiting    State = "waiting"
	StateConfirming State = "confirming"
	StateConfirmed  State = "confirmed" // transient, cleared after the done TTL
	StateFailed     State = "failed"
)

var (
	// ErrAlreadyConfirming is returned when an item is confirmed twice before
	// the first confirmation settled.
	ErrAlreadyConfirming = errors.New("conduction already in progress")
	// ErrAlreadyConduced is returned for items already in the conduced set,
	// whether the remote snapshot lists them or a local confirmation succeeded.
	ErrAlreadyConduced = errors.New("item already conduced")
)

type item struct {
	state  State
	err    string
	doneAt time.Time
}

// Session holds the conduced-id set.  The effective set is the last remote
// snapshot plus every locally confirmed id the remote snapshot does not show
// yet, so a poll that lands before the remote write propagates cannot bring a
// confirmed person back into the queue.
type Session struct {
	mu      sync.Mutex
	remote  map[string]struct{}
	pending map[string]struct{}
	items   map[string]*item
	doneTTL time.Duration
	now     func() time.Time
}

// NewSession returns an empty session.  doneTTL is how long the "done"
// indicator of a confirmed item stays visible.
func NewSession(doneTTL time.Duration) *Session {
	return &Session{
		remote:  make(map[string]struct{}),
		pending: make(map[string]struct{}),
		items:   make(map[string]*item),
		doneTTL: doneTTL,
		now:     time.Now,
	}
}

// Synchronize replaces the remote snapshot.  Pending ids that the snapshot
// now contains stop being tracked locally.
func (s *Session) Synchronize(remote []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remote = make(map[string]struct{}, len(remote))
	for _, id := range remote {
		s.remote[id] = struct{}{}
	}
	for id := range s.pending {
		if _, ok := s.remote[id]; ok {
			delete(s.pending, id)
		}
	}
}

// ConfirmOptimistic marks id as conduced before the remote call returns.
func (s *Session) ConfirmOptimistic(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	if it, ok := s.items[id]; ok && (it.state == StateConfirming || it.state == StateConfirmed) {
		return ErrAlreadyConfirming
	}
	if _, ok := s.remote[id]; ok {
		return ErrAlreadyConduced
	}
	if _, ok := s.pending[id]; ok {
		return ErrAlreadyConduced
	}
	s.pending[id] = struct{}{}
	s.items[id] = &item{state: StateConfirming}
	return nil
}

// MarkConfirmed records a successful remote confirmation.  The id stays in
// the pending set until a remote snapshot reflects it.
func (s *Session) MarkConfirmed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = &item{state: StateConfirmed, doneAt: s.now()}
}

// Rollback undoes the optimistic mark of id after a failed remote
// confirmation.  Only an id still confirming is removed from the pending set:
// ConfirmOptimistic never marks an id that was already conduced, so this
// restores the set as it was before the click.  Other items are not affected.
func (s *Session) Rollback(id string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[id]; !ok || it.state != StateConfirming {
		return
	}
	delete(s.pending, id)
	msg := "confirmation failed"
	if cause != nil {
		msg = cause.Error()
	}
	s.items[id] = &item{state: StateFailed, err: msg}
}

// Dismiss clears the error shown for a failed item.
func (s *Session) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[id]; ok && it.state == StateFailed {
		delete(s.items, id)
		return true
	}
	return false
}

// Conduced returns a copy of the effective conduced-id set.
func (s *Session) Conduced() map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{}, len(s.remote)+len(s.pending))
	for id := range s.remote {
		out[id] = struct{}{}
	}
	for id := range s.pending {
		out[id] = struct{}{}
	}
	return out
}

// State returns the confirmation state of id.
func (s *Session) State(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	if it, ok := s.items[id]; ok {
		return it.state
	}
	return StateWaiting
}

// Statuses lists every item that is not plain waiting, ordered by id.
func (s *Session) Statuses() []model.ItemStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	out := make([]model.ItemStatus, 0, len(s.items))
	for id, it := range s.items {
		out = append(out, model.ItemStatus{ItemID: id, State: string(it.state), Error: it.err})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// expireLocked drops "done" indicators older than the TTL.
func (s *Session) expireLocked() {
	now := s.now()
	for id, it := range s.items {
		if it.state == StateConfirmed && now.Sub(it.doneAt) >= s.doneTTL {
			delete(s.items, id)
		}
	}
}
