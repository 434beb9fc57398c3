package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examhall/booking-api/internal/model"
	"github.com/examhall/booking-api/internal/repository"
	"github.com/examhall/booking-api/internal/service"
)

// ReservationAPI is the lifecycle surface the admin dashboard drives.
type ReservationAPI interface {
	ChangeStatus(ctx context.Context, id uint64, status model.BookingStatus) (*model.Booking, error)
	Delete(ctx context.Context, id uint64) error
	MarkAttended(ctx context.Context, id uint64) (*model.Booking, error)
	Lookup(ctx context.Context, ticket uint64, phone string) (*model.Booking, error)
}

// BookingDirectory lists and aggregates booking records.
type BookingDirectory interface {
	List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// AdminBookingHandler serves the dashboard's booking management
// endpoints: listing, status review, deletion, entry check-in, ticket
// lookup and totals.
type AdminBookingHandler struct {
	Res      ReservationAPI
	Bookings BookingDirectory
}

func NewAdminBookingHandler(res ReservationAPI, bookings BookingDirectory) *AdminBookingHandler {
	if res == nil || bookings == nil {
		panic("nil dependency passed to NewAdminBookingHandler")
	}
	return &AdminBookingHandler{Res: res, Bookings: bookings}
}

// List returns bookings, optionally filtered by ?shift_id= and
// ?status=, newest first.
func (h *AdminBookingHandler) List(c echo.Context) error {
	var f repository.BookingFilter
	if v := c.QueryParam("shift_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift_id"})
		}
		f.ShiftID = id
	}
	if v := c.QueryParam("status"); v != "" {
		st := model.BookingStatus(strings.ToUpper(strings.TrimSpace(v)))
		if !service.ValidStatus(st) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
		f.Status = st
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, bookings)
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateStatus moves a booking to a new lifecycle state and applies the
// capacity consequence.
func (h *AdminBookingHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Res.ChangeStatus(ctx, id, status)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, b)
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
}

// Delete removes a booking and releases its seat if it held one.
func (h *AdminBookingHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Res.Delete(ctx, id); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete booking failed"})
	}
}

// Attend records hall entry for a confirmed booking.  A repeated
// check-in answers 409 with the booking so the door staff can see who
// already entered.
func (h *AdminBookingHandler) Attend(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Res.MarkAttended(ctx, id)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, b)
	case errors.Is(err, service.ErrAlreadyAttended):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already attended", "booking": b})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking not confirmed"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
}

// Lookup finds a booking by ?ticket= or, failing that, ?phone=, for the
// entry-check flow.
func (h *AdminBookingHandler) Lookup(c echo.Context) error {
	var ticket uint64
	if v := c.QueryParam("ticket"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket"})
		}
		ticket = n
	}
	phone := strings.TrimSpace(c.QueryParam("phone"))
	if ticket == 0 && phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket or phone required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Res.Lookup(ctx, ticket, phone)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, b)
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
}

// Stats returns dashboard totals.
func (h *AdminBookingHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Bookings.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats failed"})
	}
	return c.JSON(http.StatusOK, st)
}
