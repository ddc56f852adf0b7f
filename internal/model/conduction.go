package model

// ConductionRequest is the payload sent to the system of record when an
// operator confirms that a queued person has been walked to their table.
type ConductionRequest struct {
    ItemID        string `json:"item_id"`
    VenueID       string `json:"venue_id"`
    DateKey       string `json:"date"`
    GuestListID   string `json:"guest_list_id,omitempty"`
    ReservationID string `json:"reservation_id,omitempty"`
}
