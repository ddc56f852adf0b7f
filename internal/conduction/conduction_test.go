package conduction

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/venue-conduction-board/internal/model"
)

type fakeConfirmer struct {
	mu    sync.Mutex
	err   error
	calls []model.ConductionRequest
	ctxOK bool
}

func (f *fakeConfirmer) ConfirmConduction(ctx context.Context, req model.ConductionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	f.ctxOK = ctx.Err() == nil
	return f.err
}

type fakePublisher struct {
	ids []string
}

func (f *fakePublisher) PublishConductionConfirmed(_ context.Context, req model.ConductionRequest, _ time.Time) error {
	f.ids = append(f.ids, req.ItemID)
	return nil
}

func setOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

func TestConfirmFailureRollsBack(t *testing.T) {
	t.Parallel()

	s := NewSession(2 * time.Second)
	s.Synchronize([]string{"reservation-1"})
	before := s.Conduced()

	conf := &fakeConfirmer{err: errors.New("boom")}
	w := NewWorkflow(s, conf, nil, time.Second)
	err := w.Confirm(context.Background(), model.ConductionRequest{ItemID: "owner-5", GuestListID: "5"})
	if !errors.Is(err, ErrConfirmFailed) {
		t.Fatalf("expected ErrConfirmFailed, got %v", err)
	}
	if got := s.Conduced(); !reflect.DeepEqual(got, before) {
		t.Errorf("expected conduced set %v after rollback, got %v", setOf(before), setOf(got))
	}
	if st := s.State("owner-5"); st != StateFailed {
		t.Errorf("expected failed state, got %s", st)
	}
	statuses := s.Statuses()
	if len(statuses) != 1 || statuses[0].Error != "boom" {
		t.Errorf("expected one failed status with message, got %+v", statuses)
	}
	if !s.Dismiss("owner-5") || s.State("owner-5") != StateWaiting {
		t.Error("expected dismiss to return the item to waiting")
	}
	if s.Dismiss("owner-5") {
		t.Error("expected second dismiss to be a no-op")
	}
}

func TestConfirmSuccessKeepsItemUntilRemoteCatchesUp(t *testing.T) {
	t.Parallel()

	s := NewSession(2 * time.Second)
	pub := &fakePublisher{}
	w := NewWorkflow(s, &fakeConfirmer{}, pub, time.Second)
	if err := w.Confirm(context.Background(), model.ConductionRequest{ItemID: "guest-5-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State("guest-5-1") != StateConfirmed {
		t.Errorf("expected confirmed state, got %s", s.State("guest-5-1"))
	}
	if !reflect.DeepEqual(pub.ids, []string{"guest-5-1"}) {
		t.Errorf("expected one published event, got %v", pub.ids)
	}

	// A stale remote snapshot must not bring the item back.
	s.Synchronize(nil)
	if _, ok := s.Conduced()["guest-5-1"]; !ok {
		t.Error("expected pending id to survive a stale snapshot")
	}
	// Once the remote has it, dropping it from the remote drops it locally too.
	s.Synchronize([]string{"guest-5-1"})
	s.Synchronize(nil)
	if _, ok := s.Conduced()["guest-5-1"]; ok {
		t.Error("expected remote snapshot to be authoritative once it contained the id")
	}
}

func TestConfirmRejectsDoubleSubmission(t *testing.T) {
	t.Parallel()

	s := NewSession(time.Minute)
	if err := s.ConfirmOptimistic("owner-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.ConfirmOptimistic("owner-1"); !errors.Is(err, ErrAlreadyConfirming) {
		t.Errorf("expected ErrAlreadyConfirming while pending, got %v", err)
	}
	s.MarkConfirmed("owner-1")
	if err := s.ConfirmOptimistic("owner-1"); !errors.Is(err, ErrAlreadyConfirming) {
		t.Errorf("expected ErrAlreadyConfirming while done indicator shows, got %v", err)
	}
	s.Synchronize([]string{"owner-2"})
	if err := s.ConfirmOptimistic("owner-2"); !errors.Is(err, ErrAlreadyConduced) {
		t.Errorf("expected ErrAlreadyConduced, got %v", err)
	}
}

func TestDoneIndicatorExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 24, 20, 0, 0, 0, time.UTC)
	s := NewSession(2 * time.Second)
	s.now = func() time.Time { return now }

	_ = s.ConfirmOptimistic("owner-9")
	s.MarkConfirmed("owner-9")
	if got := s.Statuses(); len(got) != 1 || got[0].State != string(StateConfirmed) {
		t.Fatalf("expected confirmed status, got %+v", got)
	}
	now = now.Add(2 * time.Second)
	if got := s.Statuses(); len(got) != 0 {
		t.Errorf("expected done indicator cleared, got %+v", got)
	}
	if _, ok := s.Conduced()["owner-9"]; !ok {
		t.Error("expected id to stay conduced after the indicator clears")
	}
}

func TestConfirmedItemCannotBeReconfirmedAfterIndicatorExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 24, 20, 0, 0, 0, time.UTC)
	s := NewSession(2 * time.Second)
	s.now = func() time.Time { return now }

	conf := &fakeConfirmer{}
	w := NewWorkflow(s, conf, nil, time.Second)
	req := model.ConductionRequest{ItemID: "owner-5", GuestListID: "5"}
	if err := w.Confirm(context.Background(), req); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	// The remote snapshot has not caught up yet.
	s.Synchronize(nil)
	now = now.Add(3 * time.Second)

	conf.mu.Lock()
	conf.err = errors.New("boom")
	conf.mu.Unlock()
	if err := w.Confirm(context.Background(), req); !errors.Is(err, ErrAlreadyConduced) {
		t.Errorf("expected ErrAlreadyConduced, got %v", err)
	}
	conf.mu.Lock()
	calls := len(conf.calls)
	conf.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected 1 remote call, got %d", calls)
	}
	if _, ok := s.Conduced()["owner-5"]; !ok {
		t.Error("expected owner-5 to stay conduced")
	}
}

func TestRollbackIgnoresItemsNotConfirming(t *testing.T) {
	t.Parallel()

	s := NewSession(2 * time.Second)
	_ = s.ConfirmOptimistic("owner-7")
	s.MarkConfirmed("owner-7")

	s.Rollback("owner-7", errors.New("late failure"))
	if _, ok := s.Conduced()["owner-7"]; !ok {
		t.Error("expected confirmed id to survive a stray rollback")
	}
	if st := s.State("owner-7"); st != StateConfirmed {
		t.Errorf("expected confirmed state, got %s", st)
	}
}

func TestConfirmRunsDetachedFromCaller(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conf := &fakeConfirmer{}
	w := NewWorkflow(NewSession(time.Second), conf, nil, time.Second)
	if err := w.Confirm(ctx, model.ConductionRequest{ItemID: "reservation-3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conf.ctxOK {
		t.Error("expected remote call to run with a live context")
	}
}
