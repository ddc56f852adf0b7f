package model

import "time"

// Queue item roles.
const (
    RoleOwner = "owner"
    RoleGuest = "guest"
)

// AreaCount is the number of people currently present in one subarea.
type AreaCount struct {
    Subarea string `json:"subarea"`
    People  int    `json:"people"`
}

// Metrics summarizes today's occupancy for a venue.
type Metrics struct {
    AreasBreakdown        []AreaCount `json:"areas_breakdown"`
    AreaPeopleTotal       int         `json:"area_people_total"`
    ReservationsCheckedIn int         `json:"reservations_checked_in"`
    ReservationsTotal     int         `json:"reservations_total"`
    TotalPeopleExpected   int         `json:"total_people_expected"`
}

// QueueItem is one checked-in person still waiting to be walked to a table.
// ID is a composite identity derived from the source record type and IDs
// (reservation-<id>, owner-<listID>, guest-<listID>-<guestID>) so that it is
// stable across recomputations.
type QueueItem struct {
    ID            string `json:"id"`
    Name          string `json:"name"`
    Role          string `json:"role"`
    Table         string `json:"table"`
    Subarea       string `json:"subarea"`
    CheckInTime   string `json:"check_in_time,omitempty"`
    GuestListID   string `json:"guest_list_id,omitempty"`
    ReservationID string `json:"reservation_id,omitempty"`
}

// ItemStatus is the operator-visible confirmation state of one queue item.
type ItemStatus struct {
    ItemID string `json:"item_id"`
    State  string `json:"state"`
    Error  string `json:"error,omitempty"`
}

// Board is the full derived view served to operators.
type Board struct {
    VenueID     string       `json:"venue_id"`
    DateKey     string       `json:"date_key"`
    RefreshedAt time.Time    `json:"refreshed_at"`
    Metrics     Metrics      `json:"metrics"`
    Queue       []QueueItem  `json:"queue"`
    Statuses    []ItemStatus `json:"statuses"`
}
