package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/venue-conduction-board/internal/handler" // import the handlers that serve the board
)

// RegisterRoutes registers routes that do not touch the board on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterBoard registers the operator board routes under /v1/board.  The
// conduct limiter, when non-nil, is applied only to the confirmation route so
// that reads and refreshes are never throttled.
func RegisterBoard(e *echo.Echo, h *handler.BoardHandler, conductLimiter echo.MiddlewareFunc) {
	g := e.Group("/v1/board")
	// Read-only views of the derived board.
	g.GET("", h.GetBoard)
	g.GET("/metrics", h.GetMetrics)
	g.GET("/queue", h.GetQueue)

	// Confirming a conduction writes to the system of record.
	var mws []echo.MiddlewareFunc
	if conductLimiter != nil {
		mws = append(mws, conductLimiter)
	}
	g.POST("/queue/:id/conduct", h.Conduct, mws...)
	// Clear a failed confirmation's error indicator.
	g.DELETE("/queue/:id/error", h.DismissError)

	// Operator controls: force an immediate refresh or switch venue.
	g.POST("/refresh", h.Refresh)
	g.PUT("/venue", h.SwitchVenue)
}
