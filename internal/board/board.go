// Package board derives the occupancy metrics and the conduction queue from
// snapshots of the reservation, guest list and roster feeds.  Everything in
// this package is a pure function of its inputs: it holds no state, never
// performs I/O and never fails.
package board

import (
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iliyamo/venue-conduction-board/internal/model"
	"github.com/iliyamo/venue-conduction-board/internal/normalize"
	"github.com/iliyamo/venue-conduction-board/internal/subarea"
)

// Snapshot is one fetch of the three feeds.  Rosters maps a guest list ID to
// its guests; lists without a fetched roster are simply absent.
type Snapshot struct {
	Reservations []model.Reservation
	GuestLists   []model.GuestList
	Rosters      map[string][]model.Guest
}

// Builder computes metrics and queues for one venue layout.
type Builder struct {
	resolver *subarea.Resolver
	loc      *time.Location
}

// NewBuilder returns a Builder.  loc is the venue timezone used to read
// check-in timestamps without an offset; nil means UTC.
func NewBuilder(resolver *subarea.Resolver, loc *time.Location) *Builder {
	if resolver == nil {
		resolver = subarea.New(subarea.DefaultTable())
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{resolver: resolver, loc: loc}
}

// today is the today-filtered, ID-deduplicated view of a snapshot.
type today struct {
	reservations []model.Reservation
	byID         map[string]model.Reservation
	lists        []model.GuestList
	listsByRes   map[string][]model.GuestList
}

// filterToday keeps the records dated todayKey.  Repeated IDs keep their first
// occurrence; records without an ID are all kept.
func filterToday(s Snapshot, todayKey string) today {
	t := today{
		byID:       make(map[string]model.Reservation),
		listsByRes: make(map[string][]model.GuestList),
	}
	for _, r := range s.Reservations {
		if !normalize.IsSameDateKey(r.Date, todayKey) {
			continue
		}
		if r.ID != "" {
			if _, dup := t.byID[r.ID]; dup {
				continue
			}
			t.byID[r.ID] = r
		}
		t.reservations = append(t.reservations, r)
	}
	seen := make(map[string]bool)
	for _, gl := range s.GuestLists {
		if !normalize.IsSameDateKey(gl.Date, todayKey) || (gl.ID != "" && seen[gl.ID]) {
			continue
		}
		if gl.ID != "" {
			seen[gl.ID] = true
		}
		t.lists = append(t.lists, gl)
		if gl.ReservationID != "" {
			t.listsByRes[gl.ReservationID] = append(t.listsByRes[gl.ReservationID], gl)
		}
	}
	return t
}

// linked returns the reservation a guest list points to, if it is in today's
// feed.
func (t today) linked(gl model.GuestList) (model.Reservation, bool) {
	if gl.ReservationID == "" {
		return model.Reservation{}, false
	}
	r, ok := t.byID[gl.ReservationID]
	return r, ok
}

// listLocation resolves the table label and subarea of a guest list,
// preferring the list's own data over its reservation's.
func (b *Builder) listLocation(gl model.GuestList, res model.Reservation, hasRes bool) (table, area string) {
	table = gl.TableNumber
	if table == "" && hasRes {
		table = res.TableNumber
	}
	if label, ok := b.resolver.Resolve(gl.TableNumber, gl.AreaName); ok {
		return table, label
	}
	if hasRes {
		if label, ok := b.resolver.Resolve(res.TableNumber, res.AreaName); ok {
			return table, label
		}
	}
	return table, subarea.Unknown
}

// newCollator returns a pt-BR collator.  Collators are not safe for
// concurrent use, so each computation gets its own.
func newCollator() *collate.Collator {
	return collate.New(language.BrazilianPortuguese)
}
