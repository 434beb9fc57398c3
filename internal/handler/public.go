package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/examhall/booking-api/internal/model"
	"github.com/examhall/booking-api/internal/repository"
	"github.com/examhall/booking-api/internal/service"
)

// ShiftCatalog lists shifts for the public browse endpoint.
type ShiftCatalog interface {
	List(ctx context.Context) ([]model.Shift, error)
}

// Reserver performs the public reservation flow.
type Reserver interface {
	Reserve(ctx context.Context, draft service.BookingDraft) (*model.Booking, error)
}

// PublicHandler serves the unauthenticated applicant-facing endpoints:
// browsing shifts and creating a booking.
type PublicHandler struct {
	Shifts ShiftCatalog
	Res    Reserver
}

func NewPublicHandler(shifts ShiftCatalog, res Reserver) *PublicHandler {
	if shifts == nil || res == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Shifts: shifts, Res: res}
}

// shiftView augments a shift with its derived remaining-seat count for
// the public listing.
type shiftView struct {
	model.Shift
	Remaining uint32 `json:"remaining"`
}

// ListShifts returns every shift with capacity, booked and remaining
// counts so applicants can pick an open session.
func (h *PublicHandler) ListShifts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	shifts, err := h.Shifts.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list shifts failed"})
	}
	views := make([]shiftView, 0, len(shifts))
	for i := range shifts {
		views = append(views, shiftView{Shift: shifts[i], Remaining: shifts[i].Remaining()})
	}
	return c.JSON(http.StatusOK, views)
}

// CreateBooking accepts an applicant's reservation request and returns
// the created booking including its ticket number.  The booking starts
// PENDING; admins confirm or reject it later.
func (h *PublicHandler) CreateBooking(c echo.Context) error {
	var draft service.BookingDraft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	draft.FullName = strings.TrimSpace(draft.FullName)
	draft.PhoneNumber = strings.TrimSpace(draft.PhoneNumber)
	draft.NationalID = strings.TrimSpace(draft.NationalID)
	if draft.ShiftID == 0 || draft.FullName == "" || draft.PhoneNumber == "" || draft.NationalID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shift_id, full_name, national_id and phone_number required"})
	}

	// Reservation touches the counter table, the shift row and the
	// bookings table; give it a little more room than a plain read.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Res.Reserve(ctx, draft)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, b)
	case errors.Is(err, repository.ErrShiftNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "shift not found"})
	case errors.Is(err, service.ErrShiftFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "shift is full"})
	case errors.Is(err, repository.ErrAllocationFailed):
		// Ticket numbering is contended right now; the client may retry.
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not allocate ticket, try again"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
}
