// Package upstream is the HTTP+JSON client for the system of record that owns
// reservations, guest lists, rosters and conduction records.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/venue-conduction-board/internal/model"
	"github.com/iliyamo/venue-conduction-board/internal/normalize"
)

// ErrUnexpectedStatus is wrapped by every non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status")

const maxBodyBytes = 8 << 20

// Options configures a Client.
type Options struct {
	BaseURL   string        // e.g. https://api.example.com/v1
	Token     string        // static bearer token, used when JWTSecret is empty
	JWTSecret string        // when set, every request carries a freshly signed service token
	Subject   string        // JWT subject, defaults to "venue-board"
	Timeout   time.Duration // per-request timeout of the underlying http.Client
}

// Client talks to the system of record.  It is safe for concurrent use.
type Client struct {
	base *url.URL
	opts Options
	http *http.Client
}

// New validates the options and returns a Client.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream: invalid base url %q", opts.BaseURL)
	}
	if opts.Subject == "" {
		opts.Subject = "venue-board"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{base: base, opts: opts, http: &http.Client{Timeout: opts.Timeout}}, nil
}

// FetchReservations returns the reservations of a venue for one day.
func (c *Client) FetchReservations(ctx context.Context, venueID, dateKey string) ([]model.Reservation, error) {
	rows, err := c.getRecords(ctx, venueID, "establishments/"+url.PathEscape(venueID)+"/reservations", url.Values{"date": {dateKey}})
	if err != nil {
		return nil, fmt.Errorf("fetch reservations: %w", err)
	}
	return normalize.Reservations(rows), nil
}

// FetchGuestLists returns the guest lists of a venue for a month (YYYY-MM).
func (c *Client) FetchGuestLists(ctx context.Context, venueID, monthKey string) ([]model.GuestList, error) {
	rows, err := c.getRecords(ctx, venueID, "establishments/"+url.PathEscape(venueID)+"/guest-lists", url.Values{"month": {monthKey}})
	if err != nil {
		return nil, fmt.Errorf("fetch guest lists: %w", err)
	}
	return normalize.GuestLists(rows), nil
}

// FetchGuests returns the roster of one guest list.
func (c *Client) FetchGuests(ctx context.Context, listID string) ([]model.Guest, error) {
	rows, err := c.getRecords(ctx, "", "guest-lists/"+url.PathEscape(listID)+"/guests", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch guests of list %s: %w", listID, err)
	}
	return normalize.Guests(rows), nil
}

// FetchConduced returns the ids already conduced at a venue on one day.  The
// endpoint answers either with plain id strings or with records carrying an
// "item_id" field, bare or inside a data envelope.
func (c *Client) FetchConduced(ctx context.Context, venueID, dateKey string) ([]string, error) {
	body, err := c.do(ctx, venueID, http.MethodGet, "establishments/"+url.PathEscape(venueID)+"/conductions", url.Values{"date": {dateKey}}, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch conductions: %w", err)
	}
	raw, err := normalize.Unwrap(body)
	if err != nil {
		return nil, fmt.Errorf("fetch conductions: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids, nil
	}
	rows, err := normalize.DecodeRecords(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch conductions: %w", err)
	}
	ids = make([]string, 0, len(rows))
	for _, r := range rows {
		if id := normalize.String(r["item_id"]); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ConfirmConduction records one conduction remotely.
func (c *Client) ConfirmConduction(ctx context.Context, req model.ConductionRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("confirm conduction: %w", err)
	}
	if _, err := c.do(ctx, req.VenueID, http.MethodPost, "conductions", nil, payload); err != nil {
		return fmt.Errorf("confirm conduction: %w", err)
	}
	return nil
}

func (c *Client) getRecords(ctx context.Context, venueID, path string, q url.Values) ([]normalize.Record, error) {
	body, err := c.do(ctx, venueID, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	return normalize.DecodeRecords(body)
}

func (c *Client) do(ctx context.Context, venueID, method, path string, q url.Values, payload []byte) ([]byte, error) {
	u := *c.base
	u.Path = u.Path + "/" + path
	u.RawPath = ""
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req, venueID); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d from %s %s", ErrUnexpectedStatus, resp.StatusCode, method, u.Path)
	}
	return body, nil
}

func (c *Client) authorize(req *http.Request, venueID string) error {
	switch {
	case c.opts.JWTSecret != "":
		tok, err := serviceToken(c.opts.JWTSecret, c.opts.Subject, venueID, 5*time.Minute)
		if err != nil {
			return fmt.Errorf("sign service token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	case c.opts.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}
	return nil
}
