package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/venue-conduction-board/internal/model"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL + "/v1", Token: "static"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestFetchReservations(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/establishments/7/reservations" || r.URL.Query().Get("date") != "2026-01-24" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer static" {
			t.Errorf("expected static bearer token, got %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":10,"date":"2026-01-24","people":4,"checked_in":1,"client_name":"Ana"}]}`))
	})

	got, err := c.FetchReservations(context.Background(), "7", "2026-01-24")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Reservation{{ID: "10", Date: "2026-01-24", PartySize: 4, CheckedIn: true, ClientName: "Ana"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFetchConducedAcceptsBothShapes(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`["owner-5","reservation-1"]`,
		`[{"item_id":"owner-5"},{"item_id":"reservation-1"},{"other":1}]`,
		`{"data":["owner-5","reservation-1"]}`,
		`{"items":[{"item_id":"owner-5"},{"item_id":"reservation-1"}]}`,
	}
	for _, body := range bodies {
		body := body
		c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		got, err := c.FetchConduced(context.Background(), "7", "2026-01-24")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{"owner-5", "reservation-1"}; !reflect.DeepEqual(got, want) {
			t.Errorf("body %s: expected %v, got %v", body, want, got)
		}
	}
}

func TestConfirmConduction(t *testing.T) {
	t.Parallel()

	var got model.ConductionRequest
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/conductions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})
	req := model.ConductionRequest{ItemID: "owner-5", VenueID: "7", DateKey: "2026-01-24", GuestListID: "5"}
	if err := c.ConfirmConduction(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != req {
		t.Errorf("expected payload %+v, got %+v", req, got)
	}
}

func TestNon2xxIsAnError(t *testing.T) {
	t.Parallel()

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	_, err := c.FetchGuests(context.Background(), "5")
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestServiceTokenIsSigned(t *testing.T) {
	t.Parallel()

	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, JWTSecret: "s3cret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.FetchGuests(context.Background(), "5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw := strings.TrimPrefix(auth, "Bearer ")
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) { return []byte("s3cret"), nil })
	if err != nil || !tok.Valid {
		t.Fatalf("expected a valid token, got %v", err)
	}
	if sub, _ := tok.Claims.(jwt.MapClaims)["sub"].(string); sub != "venue-board" {
		t.Errorf("expected subject venue-board, got %q", sub)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{BaseURL: "not a url"}); err == nil {
		t.Error("expected error for invalid base url")
	}
}
