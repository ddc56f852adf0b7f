package board

import (
	"reflect"
	"testing"

	"github.com/iliyamo/venue-conduction-board/internal/model"
	"github.com/iliyamo/venue-conduction-board/internal/subarea"
)

const todayKey = "2026-01-24"

func newTestBuilder() *Builder {
	return NewBuilder(subarea.New(subarea.DefaultTable()), nil)
}

func itemIDs(items []model.QueueItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func areaPeople(m model.Metrics, area string) int {
	for _, a := range m.AreasBreakdown {
		if a.Subarea == area {
			return a.People
		}
	}
	return 0
}

func TestReservationWithoutGuestList(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{Reservations: []model.Reservation{{
		ID: "10", Date: "2026-01-24T00:00:00Z", PartySize: 4,
		CheckedIn: true, TableNumber: "12", ClientName: "Ana",
	}}}

	q := b.Queue(s, todayKey, nil)
	if got := itemIDs(q); !reflect.DeepEqual(got, []string{"reservation-10"}) {
		t.Fatalf("expected [reservation-10], got %v", got)
	}
	if q[0].Role != model.RoleOwner || q[0].Table != "12" || q[0].Subarea != "Bar" || q[0].Name != "Ana" {
		t.Errorf("unexpected item: %+v", q[0])
	}

	m := b.Metrics(s, todayKey)
	if got := areaPeople(m, "Bar"); got != 4 {
		t.Errorf("expected 4 people in Bar, got %d", got)
	}
	if m.ReservationsTotal != 1 || m.ReservationsCheckedIn != 1 || m.TotalPeopleExpected != 4 || m.AreaPeopleTotal != 4 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestGuestListOverridesReservationFlag(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{
		Reservations: []model.Reservation{{
			ID: "10", Date: "2026-01-24", PartySize: 6, CheckedIn: false, TableNumber: "12",
		}},
		GuestLists: []model.GuestList{{
			ID: "5", ReservationID: "10", Date: "2026-01-24T00:00:00Z", OwnerName: "Bruno",
			OwnerCheckedIn: true, GuestsCheckedIn: 2, TotalGuests: 3, TableNumber: "21",
		}},
	}

	m := b.Metrics(s, todayKey)
	if got := areaPeople(m, "Vista"); got != 3 {
		t.Errorf("expected 3 people in Vista, got %d", got)
	}
	if got := areaPeople(m, "Bar"); got != 0 {
		t.Errorf("expected reservation table not to be counted, got %d", got)
	}
	if m.ReservationsCheckedIn != 1 {
		t.Errorf("expected reservation checked in via owner flag, got %d", m.ReservationsCheckedIn)
	}
	if m.ReservationsTotal != 1 || m.TotalPeopleExpected != 6 {
		t.Errorf("unexpected totals: %+v", m)
	}

	// Reservation's own flag is ignored even when it says checked in.
	s.Reservations[0].CheckedIn = true
	s.GuestLists[0].OwnerCheckedIn = false
	m = b.Metrics(s, todayKey)
	if m.ReservationsCheckedIn != 0 {
		t.Errorf("expected 0 checked in, got %d", m.ReservationsCheckedIn)
	}
	if m.AreaPeopleTotal != 2 {
		t.Errorf("expected only the 2 guests present, got %d", m.AreaPeopleTotal)
	}
}

func TestOrphanGuestListCountsAsBooking(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{
		Reservations: []model.Reservation{{ID: "1", Date: todayKey, PartySize: -3}},
		GuestLists: []model.GuestList{
			{ID: "7", ReservationID: "999", Date: todayKey, TotalGuests: 4},
			{ID: "8", Date: todayKey, TotalGuests: -1},
			{ID: "9", ReservationID: "1", Date: "2026-01-23", TotalGuests: 10},
		},
	}
	m := b.Metrics(s, todayKey)
	if m.ReservationsTotal != 3 {
		t.Errorf("expected 3 bookings, got %d", m.ReservationsTotal)
	}
	if m.TotalPeopleExpected != 6 {
		t.Errorf("expected 6 people expected, got %d", m.TotalPeopleExpected)
	}
}

func TestMetricsInvariants(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{
		Reservations: []model.Reservation{
			{ID: "1", Date: todayKey, PartySize: 2, CheckedIn: true, AreaName: "Deck"},
			{ID: "2", Date: todayKey, PartySize: 0, CheckedIn: true, TableNumber: "99"},
			{ID: "3", Date: todayKey, PartySize: 5, CheckedIn: true, CheckedOut: true, TableNumber: "3"},
			{ID: "4", Date: todayKey, PartySize: 3, TableNumber: "41"},
			{ID: "1", Date: todayKey, PartySize: 2, CheckedIn: true, AreaName: "Deck"},
		},
		GuestLists: []model.GuestList{
			{ID: "20", ReservationID: "4", Date: todayKey, OwnerCheckedIn: true, GuestsCheckedIn: 1},
			{ID: "21", ReservationID: "4", Date: todayKey, OwnerCheckedIn: true, OwnerCheckedOut: true, GuestsCheckedIn: -4},
		},
	}
	m := b.Metrics(s, todayKey)

	sum := 0
	for _, a := range m.AreasBreakdown {
		sum += a.People
	}
	if sum != m.AreaPeopleTotal {
		t.Errorf("expected total %d to equal breakdown sum %d", m.AreaPeopleTotal, sum)
	}
	if m.ReservationsCheckedIn > m.ReservationsTotal {
		t.Errorf("checked in %d exceeds total %d", m.ReservationsCheckedIn, m.ReservationsTotal)
	}
	if got := areaPeople(m, "Deck"); got != 2 {
		t.Errorf("expected duplicate reservation counted once (2 in Deck), got %d", got)
	}
	if got := areaPeople(m, subarea.Unknown); got != 1 {
		t.Errorf("expected party size floor of 1 in unknown area, got %d", got)
	}
	if got := areaPeople(m, "Rooftop 2"); got != 2 {
		t.Errorf("expected owner plus one guest in Rooftop 2, got %d", got)
	}
	if m.ReservationsTotal != 4 || m.ReservationsCheckedIn != 4 {
		t.Errorf("unexpected reservation counts: %+v", m)
	}
}

func TestBreakdownOrdering(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{Reservations: []model.Reservation{
		{ID: "1", Date: todayKey, PartySize: 2, CheckedIn: true, AreaName: "Vista"},
		{ID: "2", Date: todayKey, PartySize: 2, CheckedIn: true, AreaName: "Bistrô"},
		{ID: "3", Date: todayKey, PartySize: 5, CheckedIn: true, AreaName: "Deck"},
		{ID: "4", Date: todayKey, PartySize: 2, CheckedIn: true, AreaName: "Bar"},
	}}
	m := b.Metrics(s, todayKey)
	var got []string
	for _, a := range m.AreasBreakdown {
		got = append(got, a.Subarea)
	}
	if want := []string{"Deck", "Bar", "Bistrô", "Vista"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestQueueGuestListItems(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{
		Reservations: []model.Reservation{
			{ID: "10", Date: todayKey, CheckedIn: true, TableNumber: "22"},
			{ID: "11", Date: todayKey, CheckedIn: true, GuestListID: "77", TableNumber: "30"},
		},
		GuestLists: []model.GuestList{{
			ID: "5", ReservationID: "10", Date: todayKey, OwnerName: "Carla",
			OwnerCheckedIn: true, OwnerCheckInTime: "2026-01-24T20:00:00Z", GuestsCheckedIn: 2,
		}},
		Rosters: map[string][]model.Guest{"5": {
			{ID: "1", Name: "Davi", CheckedIn: true, CheckInTime: "2026-01-24T19:00:00Z"},
			{ID: "2", Name: "Eva", CheckedIn: true, CheckedOut: true},
			{ID: "3", Name: "Fábio", CheckedIn: true},
			{ID: "3", Name: "Fábio", CheckedIn: true},
		}},
	}
	q := b.Queue(s, todayKey, map[string]struct{}{})
	if got, want := itemIDs(q), []string{"guest-5-1", "owner-5", "guest-5-3"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, it := range q {
		if it.Table != "22" || it.Subarea != "Vista" {
			t.Errorf("expected list items to inherit reservation table 22/Vista, got %+v", it)
		}
	}
	if q[0].Role != model.RoleGuest || q[1].Role != model.RoleOwner {
		t.Errorf("unexpected roles: %s, %s", q[0].Role, q[1].Role)
	}
}

func TestQueueExcludesConducedAndIsStable(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{
		Reservations: []model.Reservation{
			{ID: "1", Date: todayKey, CheckedIn: true, ClientName: "Zeca", CheckInTime: "2026-01-24 19:00:00"},
			{ID: "2", Date: todayKey, CheckedIn: true, ClientName: "Álvaro", CheckInTime: "2026-01-24 19:00:00"},
			{ID: "3", Date: todayKey, CheckedIn: true, ClientName: "bia", CheckInTime: "2026-01-24 19:00:00"},
			{ID: "4", Date: todayKey, CheckedIn: true, ClientName: "Aaron"},
			{ID: "5", Date: todayKey, CheckedIn: true, ClientName: "Caio", CheckInTime: "2026-01-24 18:00:00"},
		},
	}
	conduced := map[string]struct{}{"reservation-5": {}}
	first := b.Queue(s, todayKey, conduced)
	second := b.Queue(s, todayKey, conduced)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output for identical input")
	}
	want := []string{"reservation-2", "reservation-3", "reservation-1", "reservation-4"}
	if got := itemIDs(first); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	for _, it := range first {
		if _, ok := conduced[it.ID]; ok {
			t.Errorf("conduced item %s present in queue", it.ID)
		}
	}
}

func TestQueueIgnoresOtherDays(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{Reservations: []model.Reservation{
		{ID: "1", Date: "2026-01-23T23:00:00Z", CheckedIn: true},
		{ID: "2", Date: "not a date", CheckedIn: true},
	}}
	if q := b.Queue(s, todayKey, nil); len(q) != 0 {
		t.Errorf("expected empty queue, got %v", itemIDs(q))
	}
}

func TestRecordsWithoutIDAreNotMerged(t *testing.T) {
	t.Parallel()

	b := newTestBuilder()
	s := Snapshot{
		Reservations: []model.Reservation{
			{Date: todayKey, PartySize: 4, CheckedIn: true, TableNumber: "12"},
			{Date: todayKey, PartySize: 3, CheckedIn: true, TableNumber: "22"},
		},
		GuestLists: []model.GuestList{
			{Date: todayKey, OwnerCheckedIn: true, TotalGuests: 1, TableNumber: "1"},
			{Date: todayKey, OwnerCheckedIn: true, TotalGuests: 2, TableNumber: "2"},
		},
	}

	m := b.Metrics(s, todayKey)
	if m.ReservationsTotal != 4 {
		t.Errorf("expected 4 bookings, got %d", m.ReservationsTotal)
	}
	if m.TotalPeopleExpected != 4+3+2+3 {
		t.Errorf("expected 12 people expected, got %d", m.TotalPeopleExpected)
	}
	if got := areaPeople(m, "Bar"); got != 4 {
		t.Errorf("expected 4 people in Bar, got %d", got)
	}
	if got := areaPeople(m, "Vista"); got != 3 {
		t.Errorf("expected 3 people in Vista, got %d", got)
	}
	if got := areaPeople(m, "Deck"); got != 2 {
		t.Errorf("expected 2 owners in Deck, got %d", got)
	}
}
