// Package repository reads the board's feeds straight from the system-of-record
// database.  It is the alternative to the HTTP client in package upstream for
// deployments that sit next to the database.  Rows are scanned untyped and
// converted by package normalize, the same boundary the HTTP payloads go
// through.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/venue-conduction-board/internal/database"
	"github.com/iliyamo/venue-conduction-board/internal/model"
	"github.com/iliyamo/venue-conduction-board/internal/normalize"
)

// Source implements the board feeds over a *sql.DB.
type Source struct {
	db      *sql.DB
	dialect string // database.DriverMySQL or database.DriverPostgres
}

// NewSource constructs a Source.  dialect selects placeholder and upsert
// syntax.
func NewSource(db *sql.DB, dialect string) (*Source, error) {
	if db == nil {
		panic("nil db passed to NewSource")
	}
	switch dialect {
	case "":
		dialect = database.DriverMySQL
	case database.DriverMySQL, database.DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, dialect)
	}
	return &Source{db: db, dialect: dialect}, nil
}

// FetchReservations returns the reservations of a venue dated dateKey.
func (s *Source) FetchReservations(ctx context.Context, venueID, dateKey string) ([]model.Reservation, error) {
	const q = `SELECT id, reservation_date AS date, number_of_people AS people, checked_in, checked_out,
	                  checkin_time, table_number, area_name, guest_list_id, client_name, name
	           FROM reservations
	           WHERE establishment_id = ? AND reservation_date >= ? AND reservation_date < ?
	           ORDER BY id`
	from, to, err := dayRange(dateKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, q, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch reservations: %w", err)
	}
	return normalize.Reservations(rows), nil
}

// FetchGuestLists returns the guest lists of a venue in the month monthKey
// (YYYY-MM).
func (s *Source) FetchGuestLists(ctx context.Context, venueID, monthKey string) ([]model.GuestList, error) {
	const q = `SELECT id, reservation_id, event_date AS date, owner_name, owner_checked_in, owner_checked_out,
	                  owner_checkin_time, owner_checkout_time, guests_checked_in, total_guests,
	                  table_number, area_name
	           FROM guest_lists
	           WHERE establishment_id = ? AND event_date >= ? AND event_date < ?
	           ORDER BY id`
	from, to, err := monthRange(monthKey)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, q, venueID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch guest lists: %w", err)
	}
	return normalize.GuestLists(rows), nil
}

// FetchGuests returns the roster of one guest list.
func (s *Source) FetchGuests(ctx context.Context, listID string) ([]model.Guest, error) {
	const q = `SELECT id, name, checked_in, checked_out, checkin_time
	           FROM guests WHERE guest_list_id = ? ORDER BY id`
	rows, err := s.query(ctx, q, listID)
	if err != nil {
		return nil, fmt.Errorf("fetch guests of list %s: %w", listID, err)
	}
	return normalize.Guests(rows), nil
}

// FetchConduced returns the item ids conduced at a venue on dateKey.
func (s *Source) FetchConduced(ctx context.Context, venueID, dateKey string) ([]string, error) {
	const q = `SELECT item_id FROM conductions WHERE establishment_id = ? AND conduction_date = ? ORDER BY item_id`
	rows, err := s.db.QueryContext(ctx, s.rebind(q), venueID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("fetch conductions: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmConduction records a conduction.  Confirming the same item twice is
// a no-op, keyed by venue, date and item id.
func (s *Source) ConfirmConduction(ctx context.Context, req model.ConductionRequest) error {
	q := `INSERT IGNORE INTO conductions (item_id, establishment_id, conduction_date, guest_list_id, reservation_id)
	      VALUES (?, ?, ?, ?, ?)`
	if s.dialect == database.DriverPostgres {
		q = `INSERT INTO conductions (item_id, establishment_id, conduction_date, guest_list_id, reservation_id)
		     VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(q),
		req.ItemID, req.VenueID, req.DateKey, nullable(req.GuestListID), nullable(req.ReservationID)); err != nil {
		return fmt.Errorf("confirm conduction: %w", err)
	}
	return nil
}

// query runs q and returns every row as an untyped record keyed by column
// name.
func (s *Source) query(ctx context.Context, q string, args ...any) ([]normalize.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []normalize.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(normalize.Record, len(cols))
		for i, c := range cols {
			rec[strings.ToLower(c)] = vals[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Source) rebind(q string) string {
	if s.dialect != database.DriverPostgres {
		return q
	}
	return rebindDollar(q)
}

func rebindDollar(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// dayRange returns [dateKey, next day) as date strings.
func dayRange(dateKey string) (string, string, error) {
	d, err := time.Parse(normalize.DateLayout, dateKey)
	if err != nil {
		return "", "", fmt.Errorf("invalid date key %q: %w", dateKey, err)
	}
	return d.Format(normalize.DateLayout), d.AddDate(0, 0, 1).Format(normalize.DateLayout), nil
}

// monthRange returns [first day, first day of next month) for a YYYY-MM key.
func monthRange(monthKey string) (string, string, error) {
	d, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return "", "", fmt.Errorf("invalid month key %q: %w", monthKey, err)
	}
	return d.Format(normalize.DateLayout), d.AddDate(0, 1, 0).Format(normalize.DateLayout), nil
}
