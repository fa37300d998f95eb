package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/labstack/echo/v4"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/realtime"
)

const heartbeatInterval = 25 * time.Second

// EventsHandler relays backend change notifications to browsers as server-sent events.
type EventsHandler struct {
	hub       *realtime.Hub
	heartbeat time.Duration
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub, heartbeat: heartbeatInterval}
}

// Stream godoc
// @Summary Change notifications for a collection
// @Description Server-sent events named create, update or delete, carrying the changed record. 204 when the backend is not configured.
// @Tags realtime
// @Produce text/event-stream
// @Param collection path string true "Collection"
// @Success 200 {string} string "event stream"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /events/{collection} [get]
func (h *EventsHandler) Stream(c echo.Context) error {
	listener, leave, err := h.hub.Join(c.Param("collection"))
	switch {
	case errors.Is(err, realtime.ErrTopicNotAllowed):
		return echo.NewHTTPError(http.StatusNotFound, "unknown collection")
	case errors.Is(err, apperrors.ErrUnavailable):
		return c.NoContent(http.StatusNoContent)
	case err != nil:
		c.Logger().Warnf("events: join %s: %v", c.Param("collection"), err)
		return echo.NewHTTPError(http.StatusBadGateway, "realtime unavailable")
	}
	defer leave()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-listener.Gone():
			return nil
		case <-ticker.C:
			if _, err := res.Write([]byte(": ping\n\n")); err != nil {
				return nil
			}
			res.Flush()
		case e := <-listener.Events():
			if err := writeEvent(res, e); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e pocketbase.Event) error {
	return sse.Encode(w, sse.Event{
		Event: e.Action,
		Id:    e.Record.ID(),
		Data:  e.Record,
	})
}
