package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examhall/booking-api/internal/feed"
	"github.com/examhall/booking-api/internal/model"
	"github.com/examhall/booking-api/internal/repository"
)

// AdminShiftHandler serves the dashboard's shift management endpoints.
// The booked counter is never editable here; it only moves through the
// reservation flow.
type AdminShiftHandler struct {
	Shifts *repository.ShiftRepo
	Feed   *feed.Feed
}

func NewAdminShiftHandler(shifts *repository.ShiftRepo, fd *feed.Feed) *AdminShiftHandler {
	if shifts == nil {
		panic("nil repository passed to NewAdminShiftHandler")
	}
	return &AdminShiftHandler{Shifts: shifts, Feed: fd}
}

type shiftReq struct {
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Capacity   uint32 `json:"capacity"`
	PriceCents uint32 `json:"price_cents"`
}

func (r *shiftReq) validate() string {
	r.Date = strings.TrimSpace(r.Date)
	r.StartTime = strings.TrimSpace(r.StartTime)
	r.EndTime = strings.TrimSpace(r.EndTime)
	if r.Date == "" || r.StartTime == "" || r.EndTime == "" {
		return "date, start_time and end_time required"
	}
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	if r.Capacity == 0 {
		return "capacity must be positive"
	}
	return ""
}

// List returns all shifts including their booked counters.
func (h *AdminShiftHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	shifts, err := h.Shifts.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list shifts failed"})
	}
	return c.JSON(http.StatusOK, shifts)
}

// Create adds a new shift.  The booked counter starts at zero.
func (h *AdminShiftHandler) Create(c echo.Context) error {
	var req shiftReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := &model.Shift{
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Capacity:   req.Capacity,
		PriceCents: req.PriceCents,
	}
	if err := h.Shifts.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create shift failed"})
	}
	h.Feed.Publish(feed.Event{Collection: feed.CollectionShifts, Action: feed.ActionCreated, ID: s.ID, Payload: s})
	return c.JSON(http.StatusCreated, s)
}

// Update rewrites a shift's editable fields: date, times, capacity and
// price.
func (h *AdminShiftHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req shiftReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s := &model.Shift{
		ID:         id,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Capacity:   req.Capacity,
		PriceCents: req.PriceCents,
	}
	switch err := h.Shifts.Update(ctx, s); {
	case err == nil:
		h.Feed.Publish(feed.Event{Collection: feed.CollectionShifts, Action: feed.ActionUpdated, ID: s.ID, Payload: s})
		return c.JSON(http.StatusOK, s)
	case errors.Is(err, repository.ErrShiftNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shift not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update shift failed"})
	}
}

// Delete removes a shift.  Existing bookings keep their shift_id and
// surface as orphaned in the dashboard.
func (h *AdminShiftHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Shifts.Delete(ctx, id); {
	case err == nil:
		h.Feed.Publish(feed.Event{Collection: feed.CollectionShifts, Action: feed.ActionDeleted, ID: id})
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrShiftNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shift not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete shift failed"})
	}
}
