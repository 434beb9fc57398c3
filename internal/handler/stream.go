package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/examhall/booking-api/internal/feed"
	"github.com/examhall/booking-api/internal/model"
	"github.com/examhall/booking-api/internal/repository"
)

// AdminLister lists admin accounts for the stream snapshot.
type AdminLister interface {
	List(ctx context.Context) ([]model.Admin, error)
}

// StreamHandler upgrades dashboard connections to websockets and pushes
// a full snapshot followed by live change events from the feed.  The
// dashboard renders entirely from this stream and never polls.
type StreamHandler struct {
	Feed     *feed.Feed
	Shifts   ShiftCatalog
	Bookings BookingDirectory
	Admins   AdminLister
}

func NewStreamHandler(fd *feed.Feed, shifts ShiftCatalog, bookings BookingDirectory, admins AdminLister) *StreamHandler {
	if fd == nil || shifts == nil || bookings == nil || admins == nil {
		panic("nil dependency passed to NewStreamHandler")
	}
	return &StreamHandler{Feed: fd, Shifts: shifts, Bookings: bookings, Admins: admins}
}

// upgrader allows any origin; the route sits behind JWT middleware so
// the token, not the Origin header, is the access control.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// streamMsg is the wire envelope.  Type is "snapshot" once per
// connection, then "event" for every subsequent change.
type streamMsg struct {
	Type     string          `json:"type"`
	Shifts   []model.Shift   `json:"shifts,omitempty"`
	Bookings []model.Booking `json:"bookings,omitempty"`
	Admins   []model.Admin   `json:"admins,omitempty"`
	Event    *feed.Event     `json:"event,omitempty"`
}

const (
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
)

// Stream serves one dashboard connection until the client disconnects.
func (h *StreamHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	snap, err := h.snapshot(ctx)
	cancel()
	if err != nil {
		log.Printf("stream: snapshot failed: %v", err)
		return nil
	}

	// Subscribe before sending the snapshot so no change slips between
	// the snapshot read and the first event.
	subID, events := h.Feed.Subscribe(64)
	defer h.Feed.Unsubscribe(subID)

	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err := conn.WriteJSON(snap); err != nil {
		return nil
	}

	// Reader goroutine: the dashboard sends nothing, but reading is how
	// close and pong frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(streamMsg{Type: "event", Event: &ev}); err != nil {
				return nil
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

func (h *StreamHandler) snapshot(ctx context.Context) (*streamMsg, error) {
	shifts, err := h.Shifts.List(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := h.Bookings.List(ctx, repository.BookingFilter{})
	if err != nil {
		return nil, err
	}
	admins, err := h.Admins.List(ctx)
	if err != nil {
		return nil, err
	}
	return &streamMsg{Type: "snapshot", Shifts: shifts, Bookings: bookings, Admins: admins}, nil
}
