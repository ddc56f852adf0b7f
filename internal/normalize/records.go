package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/venue-conduction-board/internal/model"
)

// Record is one loosely typed row of a remote feed.  Values keep whatever
// JSON type the endpoint used (numbers arrive as json.Number).
type Record map[string]any

// first returns the first present, non-nil value among keys.
func (r Record) first(keys ...string) any {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			return v
		}
	}
	return nil
}

func (r Record) str(keys ...string) string { return String(r.first(keys...)) }
func (r Record) flag(keys ...string) bool  { return ToBoolean(r.first(keys...)) }
func (r Record) number(keys ...string) int { return ParseIntSafe(r.first(keys...)) }

// DecodeRecords decodes a JSON array of objects, unwrapping an envelope the
// way Unwrap does.
func DecodeRecords(body []byte) ([]Record, error) {
	raw, err := Unwrap(body)
	if err != nil || raw == nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out []Record
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return out, nil
}

// Unwrap returns the JSON array in body, looking inside a "data", "items" or
// "results" envelope when body is an object.  An empty or null body yields
// nil.
func Unwrap(body []byte) ([]byte, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	if body[0] == '[' {
		return body, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	for _, key := range []string{"data", "items", "results"} {
		if raw, ok := envelope[key]; ok {
			return Unwrap(raw)
		}
	}
	return nil, fmt.Errorf("decode envelope: no data array")
}

// Reservation converts a raw reservation row.  The client name falls back to
// the generic "name" field when "client_name" is missing.
func Reservation(r Record) model.Reservation {
	return model.Reservation{
		ID:          r.str("id"),
		Date:        r.str("date", "reservation_date"),
		PartySize:   r.number("people", "party_size", "number_of_people"),
		CheckedIn:   r.flag("checked_in"),
		CheckedOut:  r.flag("checked_out"),
		CheckInTime: r.str("checkin_time", "check_in_time", "checked_in_at"),
		TableNumber: r.str("table_number"),
		AreaName:    r.str("area_name"),
		GuestListID: r.str("guest_list_id"),
		ClientName:  r.str("client_name"),
		ContactName: r.str("name"),
	}
}

// GuestList converts a raw guest list row.
func GuestList(r Record) model.GuestList {
	return model.GuestList{
		ID:                r.str("id"),
		ReservationID:     r.str("reservation_id"),
		Date:              r.str("date", "event_date"),
		OwnerName:         r.str("owner_name"),
		OwnerCheckedIn:    r.flag("owner_checked_in"),
		OwnerCheckedOut:   r.flag("owner_checked_out"),
		OwnerCheckInTime:  r.str("owner_checkin_time", "owner_check_in_time"),
		OwnerCheckOutTime: r.str("owner_checkout_time", "owner_check_out_time"),
		GuestsCheckedIn:   r.number("guests_checked_in"),
		TotalGuests:       r.number("total_guests"),
		TableNumber:       r.str("table_number"),
		AreaName:          r.str("area_name"),
	}
}

// Guest converts a raw roster row.
func Guest(r Record) model.Guest {
	return model.Guest{
		ID:          r.str("id"),
		Name:        r.str("name"),
		CheckedIn:   r.flag("checked_in"),
		CheckedOut:  r.flag("checked_out"),
		CheckInTime: r.str("checkin_time", "check_in_time", "checked_in_at"),
	}
}

// Reservations converts every row of a reservations feed.
func Reservations(rows []Record) []model.Reservation {
	out := make([]model.Reservation, 0, len(rows))
	for _, r := range rows {
		out = append(out, Reservation(r))
	}
	return out
}

// GuestLists converts every row of a guest list feed.
func GuestLists(rows []Record) []model.GuestList {
	out := make([]model.GuestList, 0, len(rows))
	for _, r := range rows {
		out = append(out, GuestList(r))
	}
	return out
}

// Guests converts every row of a roster.
func Guests(rows []Record) []model.Guest {
	out := make([]model.Guest, 0, len(rows))
	for _, r := range rows {
		out = append(out, Guest(r))
	}
	return out
}
