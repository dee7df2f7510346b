package api

import (
	"github.com/labstack/echo"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/storage"
	"github.com/joemagnusbizdev/magnus-garmin-ecc/pkg/tracker"
)

// Handler contains all properties to serve the API
type Handler struct {
	nc      *nats.Conn
	store   storage.Interface
	tracker *tracker.Tracker
}

// NewHandler create a new API handler
func NewHandler(nc *nats.Conn, store storage.Interface, t *tracker.Tracker) *Handler {
	return &Handler{
		nc:      nc,
		store:   store,
		tracker: t,
	}
}

// RegisterRoutes attaches the handlers to the echo web server
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	log.Debug("Register API routes")
	api := e.Group("/api/v1")

	api.POST("/inbound", h.handleInboundPush)

	api.GET("/assets", h.handleFetchAssets)
	api.GET("/assets/:id", h.handleGetAssetByID)
	api.POST("/assets/:id/messages", h.handleSendMessage)
	api.POST("/assets/:id/sos/ack", h.handleAcknowledgeSOS)
	api.POST("/assets/:id/close", h.handleCloseAsset)

	api.GET("/events", h.handleFetchEvents)

	api.Any("/realtime-events", h.realtimeEventsHandler())
}
