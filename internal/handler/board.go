package handler

// This file defines the operator-facing board endpoints: reading the derived
// board, confirming conductions, dismissing failures, forcing a refresh and
// switching the active venue.

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/venue-conduction-board/internal/conduction"
    "github.com/iliyamo/venue-conduction-board/internal/model"
    "github.com/iliyamo/venue-conduction-board/internal/poller"
)

// BoardService is the poller as seen by the HTTP layer.
type BoardService interface {
    Board() (model.Board, error)
    Confirm(ctx context.Context, itemID string) error
    Dismiss(itemID string) bool
    Refresh(ctx context.Context) error
    Start(ctx context.Context, venueID string)
    VenueID() string
}

// BoardHandler serves the board.  Base is the process-lifetime context new
// polling loops are bound to; request contexts end with the request.
type BoardHandler struct {
    Board BoardService
    Base  context.Context
}

// NewBoardHandler constructs a BoardHandler.  All dependencies must be non-nil.
func NewBoardHandler(base context.Context, svc BoardService) *BoardHandler {
    if base == nil || svc == nil {
        panic("nil dependency passed to NewBoardHandler")
    }
    return &BoardHandler{Board: svc, Base: base}
}

// GetBoard handles GET /v1/board.
func (h *BoardHandler) GetBoard(c echo.Context) error {
    b, err := h.Board.Board()
    if err != nil {
        return boardError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// GetMetrics handles GET /v1/board/metrics.
func (h *BoardHandler) GetMetrics(c echo.Context) error {
    b, err := h.Board.Board()
    if err != nil {
        return boardError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "venue_id": b.VenueID,
        "date_key": b.DateKey,
        "metrics":  b.Metrics,
    })
}

// GetQueue handles GET /v1/board/queue.
func (h *BoardHandler) GetQueue(c echo.Context) error {
    b, err := h.Board.Board()
    if err != nil {
        return boardError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "items":    b.Queue,
        "count":    len(b.Queue),
        "statuses": b.Statuses,
    })
}

// Conduct handles POST /v1/board/queue/:id/conduct.  The item leaves the
// queue immediately; when the system of record rejects the confirmation it
// is put back and 502 is returned with the error, which also stays on the
// board until dismissed.
func (h *BoardHandler) Conduct(c echo.Context) error {
    id := strings.TrimSpace(c.Param("id"))
    if id == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
    }
    if err := h.Board.Confirm(c.Request().Context(), id); err != nil {
        return boardError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item_id": id, "status": string(conduction.StateConfirmed)})
}

// DismissError handles DELETE /v1/board/queue/:id/error.
func (h *BoardHandler) DismissError(c echo.Context) error {
    if !h.Board.Dismiss(c.Param("id")) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no error to dismiss"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Refresh handles POST /v1/board/refresh.
func (h *BoardHandler) Refresh(c echo.Context) error {
    if err := h.Board.Refresh(c.Request().Context()); err != nil {
        return boardError(c, err)
    }
    return h.GetBoard(c)
}

// SwitchVenue handles PUT /v1/board/venue.  The body must be a JSON object
// with a non-empty "venue_id".  Polling of the previous venue stops before
// the new one starts.
func (h *BoardHandler) SwitchVenue(c echo.Context) error {
    var body struct {
        VenueID string `json:"venue_id"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    body.VenueID = strings.TrimSpace(body.VenueID)
    if body.VenueID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id is required"})
    }
    if body.VenueID != h.Board.VenueID() {
        h.Board.Start(h.Base, body.VenueID)
    }
    return c.JSON(http.StatusAccepted, echo.Map{"venue_id": body.VenueID})
}

// boardError maps poller and conduction errors to HTTP responses.
func boardError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, poller.ErrNotStarted):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "no active venue"})
    case errors.Is(err, poller.ErrUnknownItem):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "queue item not found"})
    case errors.Is(err, conduction.ErrAlreadyConfirming), errors.Is(err, conduction.ErrAlreadyConduced):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, conduction.ErrConfirmFailed):
        return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
    default:
        c.Logger().Errorf("board: %v", err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "system of record unavailable"})
    }
}
