package board

import (
	"sort"
	"time"

	"github.com/iliyamo/venue-conduction-board/internal/model"
	"github.com/iliyamo/venue-conduction-board/internal/normalize"
)

// ReservationItemID is the queue identity of a reservation holder without a
// guest list.
func ReservationItemID(reservationID string) string { return "reservation-" + reservationID }

// OwnerItemID is the queue identity of a guest list owner.
func OwnerItemID(listID string) string { return "owner-" + listID }

// GuestItemID is the queue identity of a guest on a list.
func GuestItemID(listID, guestID string) string { return "guest-" + listID + "-" + guestID }

// Queue returns everyone who is checked in, has not left and has not been
// conduced yet, oldest check-in first.  Identical inputs always produce the
// same items in the same order, which keeps item IDs usable as keys for
// confirmation state across polls.
func (b *Builder) Queue(s Snapshot, todayKey string, conduced map[string]struct{}) []model.QueueItem {
	t := filterToday(s, todayKey)
	items := []model.QueueItem{}
	emitted := make(map[string]bool)
	add := func(it model.QueueItem) {
		if _, ok := conduced[it.ID]; ok || emitted[it.ID] {
			return
		}
		emitted[it.ID] = true
		items = append(items, it)
	}

	covered := make(map[string]bool)
	for _, gl := range t.lists {
		res, hasRes := t.linked(gl)
		table, area := b.listLocation(gl, res, hasRes)
		if hasRes {
			covered[res.ID] = true
		}
		if gl.OwnerCheckedIn && !gl.OwnerCheckedOut {
			add(model.QueueItem{
				ID:            OwnerItemID(gl.ID),
				Name:          gl.OwnerName,
				Role:          model.RoleOwner,
				Table:         table,
				Subarea:       area,
				CheckInTime:   gl.OwnerCheckInTime,
				GuestListID:   gl.ID,
				ReservationID: gl.ReservationID,
			})
		}
		for _, g := range s.Rosters[gl.ID] {
			if g.Present() {
				add(model.QueueItem{
					ID:            GuestItemID(gl.ID, g.ID),
					Name:          g.Name,
					Role:          model.RoleGuest,
					Table:         table,
					Subarea:       area,
					CheckInTime:   g.CheckInTime,
					GuestListID:   gl.ID,
					ReservationID: gl.ReservationID,
				})
			}
		}
	}

	for _, r := range t.reservations {
		if covered[r.ID] || r.GuestListID != "" {
			continue
		}
		if r.CheckedIn && !r.CheckedOut {
			add(model.QueueItem{
				ID:            ReservationItemID(r.ID),
				Name:          r.DisplayName(),
				Role:          model.RoleOwner,
				Table:         r.TableNumber,
				Subarea:       b.resolver.Label(r.TableNumber, r.AreaName),
				CheckInTime:   r.CheckInTime,
				ReservationID: r.ID,
			})
		}
	}

	b.sortQueue(items)
	return items
}

// sortQueue orders by check-in time with unknown times last, then by name in
// pt-BR collation, then by ID so the order is total.
func (b *Builder) sortQueue(items []model.QueueItem) {
	type key struct {
		at    time.Time
		known bool
	}
	keys := make(map[string]key, len(items))
	for _, it := range items {
		at, ok := normalize.ParseTimestamp(it.CheckInTime, b.loc)
		keys[it.ID] = key{at: at, known: ok}
	}
	col := newCollator()
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := keys[items[i].ID], keys[items[j].ID]
		if ki.known != kj.known {
			return ki.known
		}
		if ki.known && !ki.at.Equal(kj.at) {
			return ki.at.Before(kj.at)
		}
		if cmp := col.CompareString(items[i].Name, items[j].Name); cmp != 0 {
			return cmp < 0
		}
		return items[i].ID < items[j].ID
	})
}
