package model

// Reservation is a table booking for a venue on a given day as read from the
// system of record.  All fields have already been normalized: flags are real
// booleans, counts are integers and IDs are strings, so downstream code never
// has to deal with the heterogeneous encodings the remote endpoints use.
//
// Fields:
//  ID          – reservations.id.
//  Date        – raw date string as delivered by the feed.
//  PartySize   – declared number of people (may be zero or negative in bad data).
//  CheckedIn   – reservation holder has passed the entrance.
//  CheckedOut  – reservation holder has left.
//  CheckInTime – raw check-in timestamp, empty when unknown.
//  TableNumber – raw table number, possibly a comma separated list ("12,13").
//  AreaName    – free-text area name, empty when unknown.
//  GuestListID – optional link to a GuestList, empty when none.
//  ClientName  – booking holder name.
//  ContactName – fallback name used when ClientName is empty.
type Reservation struct {
    ID          string `json:"id"`
    Date        string `json:"date"`
    PartySize   int    `json:"party_size"`
    CheckedIn   bool   `json:"checked_in"`
    CheckedOut  bool   `json:"checked_out"`
    CheckInTime string `json:"check_in_time,omitempty"`
    TableNumber string `json:"table_number,omitempty"`
    AreaName    string `json:"area_name,omitempty"`
    GuestListID string `json:"guest_list_id,omitempty"`
    ClientName  string `json:"client_name,omitempty"`
    ContactName string `json:"contact_name,omitempty"`
}

// DisplayName returns the client name, falling back to the contact name.
func (r Reservation) DisplayName() string {
    if r.ClientName != "" {
        return r.ClientName
    }
    return r.ContactName
}

// GuestList is a secondary roster attached to (at most) one reservation.  It
// has one owner and zero or more guests, each checked in independently.
type GuestList struct {
    ID                string `json:"id"`
    ReservationID     string `json:"reservation_id,omitempty"` // empty when the list is standalone
    Date              string `json:"date"`
    OwnerName         string `json:"owner_name"`
    OwnerCheckedIn    bool   `json:"owner_checked_in"`
    OwnerCheckedOut   bool   `json:"owner_checked_out"`
    OwnerCheckInTime  string `json:"owner_check_in_time,omitempty"`
    OwnerCheckOutTime string `json:"owner_check_out_time,omitempty"`
    GuestsCheckedIn   int    `json:"guests_checked_in"` // guests currently inside
    TotalGuests       int    `json:"total_guests"`      // declared guests, owner excluded
    TableNumber       string `json:"table_number,omitempty"`
    AreaName          string `json:"area_name,omitempty"`
}

// Guest is a named person on a GuestList.
type Guest struct {
    ID          string `json:"id"`
    Name        string `json:"name"`
    CheckedIn   bool   `json:"checked_in"`
    CheckedOut  bool   `json:"checked_out"`
    CheckInTime string `json:"check_in_time,omitempty"`
}

// Present reports whether the guest is currently inside the venue.
func (g Guest) Present() bool { return g.CheckedIn && !g.CheckedOut }
