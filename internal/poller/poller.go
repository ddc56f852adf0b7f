// Package poller keeps the board of the active venue up to date.  It re-fetches
// the feeds on a fixed interval, re-seeds the conduction session from the
// remote conduced-id snapshot and re-derives metrics and queue on every read.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/venue-conduction-board/internal/board"
	"github.com/iliyamo/venue-conduction-board/internal/conduction"
	"github.com/iliyamo/venue-conduction-board/internal/model"
	"github.com/iliyamo/venue-conduction-board/internal/normalize"
)

var (
	// ErrNotStarted is returned when no venue is active.
	ErrNotStarted = errors.New("no active venue")
	// ErrUnknownItem is returned when confirming an id that is not on today's
	// board.
	ErrUnknownItem = errors.New("unknown queue item")
)

// Source is the system of record.
type Source interface {
	FetchReservations(ctx context.Context, venueID, dateKey string) ([]model.Reservation, error)
	FetchGuestLists(ctx context.Context, venueID, monthKey string) ([]model.GuestList, error)
	FetchGuests(ctx context.Context, listID string) ([]model.Guest, error)
	FetchConduced(ctx context.Context, venueID, dateKey string) ([]string, error)
	conduction.Confirmer
}

// Store persists derived boards outside the process.
type Store interface {
	Save(ctx context.Context, b model.Board) error
	Load(ctx context.Context, venueID, dateKey string) (model.Board, bool, error)
}

// Options tunes a Poller.  Zero values get defaults.
type Options struct {
	Interval       time.Duration    // refresh period, default 10s
	Location       *time.Location   // venue timezone, default time.Local
	DoneTTL        time.Duration    // how long a "done" indicator shows, default 2s
	ConfirmTimeout time.Duration    // remote confirm timeout, default 15s
	Now            func() time.Time // clock, default time.Now
}

// Poller drives refreshes for one active venue at a time.
type Poller struct {
	source    Source
	builder   *board.Builder
	publisher conduction.Publisher
	store     Store
	opts      Options

	lifecycle  sync.Mutex // serializes Start and Stop
	refreshing sync.Mutex // serializes Refresh so snapshots commit in fetch order

	mu          sync.Mutex
	venueID     string
	dateKey     string
	snapshot    board.Snapshot
	refreshedAt time.Time
	warm        *model.Board
	workflow    *conduction.Workflow
	cancel      context.CancelFunc
	done        chan struct{}
}

// New constructs a Poller.  publisher and store may be nil.
func New(source Source, builder *board.Builder, publisher conduction.Publisher, store Store, opts Options) *Poller {
	if source == nil || builder == nil {
		panic("nil dependency passed to poller.New")
	}
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.DoneTTL <= 0 {
		opts.DoneTTL = 2 * time.Second
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Poller{source: source, builder: builder, publisher: publisher, store: store, opts: opts}
}

// Start makes venueID the active venue and starts polling it: once
// immediately, then every Interval until ctx is cancelled, Stop is called or
// another venue is started.  Any previous loop is torn down first so no
// request for a stale venue outlives the switch.
func (p *Poller) Start(ctx context.Context, venueID string) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.stop()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.activate(venueID)
	p.mu.Lock()
	p.cancel, p.done = cancel, done
	p.mu.Unlock()

	log.Printf("poller: polling venue %s every %s", venueID, p.opts.Interval)
	go p.run(loopCtx, venueID, done)
}

// Stop tears down the polling loop and waits for it to exit.  An in-flight
// confirmation is not affected.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	p.stop()
}

func (p *Poller) stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// activate resets all per-venue state.
func (p *Poller) activate(venueID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.venueID = venueID
	p.dateKey = ""
	p.snapshot = board.Snapshot{}
	p.refreshedAt = time.Time{}
	p.warm = nil
	p.workflow = p.newWorkflow()
}

func (p *Poller) newWorkflow() *conduction.Workflow {
	return conduction.NewWorkflow(conduction.NewSession(p.opts.DoneTTL), p.source, p.publisher, p.opts.ConfirmTimeout)
}

func (p *Poller) run(ctx context.Context, venueID string, done chan struct{}) {
	defer close(done)
	p.warmStart(ctx, venueID)
	p.refreshLogged(ctx)

	t := time.NewTicker(p.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("poller: stopped polling venue %s", venueID)
			return
		case <-t.C:
			p.refreshLogged(ctx)
		}
	}
}

func (p *Poller) refreshLogged(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
		log.Printf("poller: refresh failed: %v", err)
	}
}

// warmStart serves the last stored board until the first refresh lands.
func (p *Poller) warmStart(ctx context.Context, venueID string) {
	if p.store == nil {
		return
	}
	dateKey := normalize.TodayKey(p.opts.Now(), p.opts.Location)
	b, ok, err := p.store.Load(ctx, venueID, dateKey)
	if err != nil {
		log.Printf("poller: load cached board: %v", err)
		return
	}
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.venueID == venueID && p.refreshedAt.IsZero() {
		p.warm = &b
	}
}

// Refresh fetches all feeds for the active venue once.  A failure to fetch
// reservations or guest lists keeps the previous snapshot.  A failed roster
// fetch only empties that roster.  A failed conduced-id fetch keeps the
// session as it was rather than clearing it.  Concurrent calls run one at a
// time, so an older conduced snapshot never overwrites a newer one.
func (p *Poller) Refresh(ctx context.Context) error {
	p.refreshing.Lock()
	defer p.refreshing.Unlock()

	p.mu.Lock()
	venueID, wf := p.venueID, p.workflow
	p.mu.Unlock()
	if venueID == "" {
		return ErrNotStarted
	}

	now := p.opts.Now()
	dateKey := normalize.TodayKey(now, p.opts.Location)

	reservations, err := p.source.FetchReservations(ctx, venueID, dateKey)
	if err != nil {
		return err
	}
	lists, err := p.source.FetchGuestLists(ctx, venueID, normalize.MonthKey(dateKey))
	if err != nil {
		return err
	}
	rosters := make(map[string][]model.Guest)
	for _, gl := range lists {
		if gl.GuestsCheckedIn <= 0 || !normalize.IsSameDateKey(gl.Date, dateKey) {
			continue
		}
		if _, fetched := rosters[gl.ID]; fetched {
			continue
		}
		guests, err := p.source.FetchGuests(ctx, gl.ID)
		if err != nil {
			log.Printf("poller: roster of list %s unavailable: %v", gl.ID, err)
			guests = nil
		}
		rosters[gl.ID] = guests
	}
	conduced, conducedErr := p.source.FetchConduced(ctx, venueID, dateKey)
	if conducedErr != nil {
		log.Printf("poller: conduced snapshot unavailable, keeping local state: %v", conducedErr)
	}

	p.mu.Lock()
	if p.venueID != venueID || p.workflow != wf {
		p.mu.Unlock()
		return nil
	}
	if p.dateKey != "" && p.dateKey != dateKey {
		log.Printf("poller: day changed from %s to %s, resetting conduction session", p.dateKey, dateKey)
		p.workflow = p.newWorkflow()
	}
	if conducedErr == nil {
		p.workflow.Session().Synchronize(conduced)
	}
	p.snapshot = board.Snapshot{Reservations: reservations, GuestLists: lists, Rosters: rosters}
	p.dateKey = dateKey
	p.refreshedAt = now
	p.warm = nil
	b := p.boardLocked()
	p.mu.Unlock()

	if p.store != nil {
		if err := p.store.Save(ctx, b); err != nil {
			log.Printf("poller: save board: %v", err)
		}
	}
	return nil
}

// Board derives the current board.  The queue reflects optimistic
// confirmations immediately, without waiting for the next poll.
func (p *Poller) Board() (model.Board, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.venueID == "" {
		return model.Board{}, ErrNotStarted
	}
	if p.warm != nil {
		return p.warmLocked(), nil
	}
	return p.boardLocked(), nil
}

// warmLocked is the cached board with local confirmations applied.
func (p *Poller) warmLocked() model.Board {
	session := p.workflow.Session()
	conduced := session.Conduced()
	b := *p.warm
	b.Queue = make([]model.QueueItem, 0, len(p.warm.Queue))
	for _, it := range p.warm.Queue {
		if _, ok := conduced[it.ID]; !ok {
			b.Queue = append(b.Queue, it)
		}
	}
	b.Statuses = session.Statuses()
	return b
}

func (p *Poller) boardLocked() model.Board {
	dateKey := p.dateKey
	if dateKey == "" {
		dateKey = normalize.TodayKey(p.opts.Now(), p.opts.Location)
	}
	session := p.workflow.Session()
	return model.Board{
		VenueID:     p.venueID,
		DateKey:     dateKey,
		RefreshedAt: p.refreshedAt,
		Metrics:     p.builder.Metrics(p.snapshot, dateKey),
		Queue:       p.builder.Queue(p.snapshot, dateKey, session.Conduced()),
		Statuses:    session.Statuses(),
	}
}

// Confirm conduces one queue item.  The item disappears from Board right
// away and comes back if the remote confirmation fails.
func (p *Poller) Confirm(ctx context.Context, itemID string) error {
	p.mu.Lock()
	if p.venueID == "" {
		p.mu.Unlock()
		return ErrNotStarted
	}
	// Look the item up ignoring conduced state so repeated clicks are reported
	// as such by the session instead of as unknown items.  Until the first
	// refresh lands, the cached board is what the operator sees.
	items, dateKey := p.builder.Queue(p.snapshot, p.dateKey, nil), p.dateKey
	if p.warm != nil {
		items, dateKey = p.warm.Queue, p.warm.DateKey
	}
	var found *model.QueueItem
	for _, it := range items {
		if it.ID == itemID {
			it := it
			found = &it
			break
		}
	}
	venueID, wf := p.venueID, p.workflow
	p.mu.Unlock()

	if found == nil {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	return wf.Confirm(ctx, model.ConductionRequest{
		ItemID:        found.ID,
		VenueID:       venueID,
		DateKey:       dateKey,
		GuestListID:   found.GuestListID,
		ReservationID: found.ReservationID,
	})
}

// Dismiss clears the error of a failed confirmation.
func (p *Poller) Dismiss(itemID string) bool {
	p.mu.Lock()
	wf := p.workflow
	p.mu.Unlock()
	if wf == nil {
		return false
	}
	return wf.Session().Dismiss(itemID)
}

// VenueID returns the active venue, or "" before Start.
func (p *Poller) VenueID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.venueID
}
