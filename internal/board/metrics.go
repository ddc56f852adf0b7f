package board

import (
	"sort"

	"github.com/iliyamo/venue-conduction-board/internal/model"
)

// Metrics computes today's occupancy.  When a reservation has guest lists,
// its presence is derived from the lists and their guests only; the
// reservation's own check-in flag is used solely for reservations without
// any list, so nobody is counted twice.
func (b *Builder) Metrics(s Snapshot, todayKey string) model.Metrics {
	t := filterToday(s, todayKey)
	var m model.Metrics

	m.ReservationsTotal = len(t.reservations)
	for _, r := range t.reservations {
		m.TotalPeopleExpected += max(r.PartySize, 0)
	}
	// Lists whose reservation is not in the feed count as bookings of their own.
	for _, gl := range t.lists {
		if _, ok := t.linked(gl); ok {
			continue
		}
		m.ReservationsTotal++
		m.TotalPeopleExpected += 1 + max(gl.TotalGuests, 0)
	}

	for _, r := range t.reservations {
		lists := t.listsByRes[r.ID]
		if len(lists) == 0 {
			if r.CheckedIn {
				m.ReservationsCheckedIn++
			}
			continue
		}
		for _, gl := range lists {
			if gl.OwnerCheckedIn {
				m.ReservationsCheckedIn++
				break
			}
		}
	}

	people := make(map[string]int)
	handled := make(map[string]bool)
	for _, gl := range t.lists {
		res, hasRes := t.linked(gl)
		if hasRes {
			handled[res.ID] = true
		}
		present := max(gl.GuestsCheckedIn, 0)
		if gl.OwnerCheckedIn && !gl.OwnerCheckedOut {
			present++
		}
		if present == 0 {
			continue
		}
		_, area := b.listLocation(gl, res, hasRes)
		people[area] += present
	}
	for _, r := range t.reservations {
		if handled[r.ID] || !r.CheckedIn || r.CheckedOut {
			continue
		}
		people[b.resolver.Label(r.TableNumber, r.AreaName)] += max(r.PartySize, 1)
	}

	m.AreasBreakdown = make([]model.AreaCount, 0, len(people))
	for area, n := range people {
		m.AreasBreakdown = append(m.AreasBreakdown, model.AreaCount{Subarea: area, People: n})
		m.AreaPeopleTotal += n
	}
	col := newCollator()
	sort.Slice(m.AreasBreakdown, func(i, j int) bool {
		a, c := m.AreasBreakdown[i], m.AreasBreakdown[j]
		if a.People != c.People {
			return a.People > c.People
		}
		if cmp := col.CompareString(a.Subarea, c.Subarea); cmp != 0 {
			return cmp < 0
		}
		return a.Subarea < c.Subarea
	})
	return m
}
