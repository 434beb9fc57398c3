// Package repository provides data access to shifts, bookings, admin
// accounts and the ticket counter over database/sql.  Sentinel errors
// declared here let handlers and services distinguish failure scenarios
// without inspecting driver errors.
package repository

import "errors"

// ErrShiftNotFound is returned when an operation references a shift id
// that does not exist.  Handlers should translate this into 404.
var ErrShiftNotFound = errors.New("shift not found")

// ErrBookingNotFound is returned when an operation references a booking
// id that does not exist.  Handlers should translate this into 404.
var ErrBookingNotFound = errors.New("booking not found")

// ErrAdminNotFound is returned when an admin account lookup by id or
// email matches no row.
var ErrAdminNotFound = errors.New("admin not found")

// ErrEmailExists is returned when creating an admin with an email that
// is already registered.  Handlers should translate this into 409.
var ErrEmailExists = errors.New("email already exists")

// ErrAllocationFailed is returned when the ticket-counter transaction
// cannot commit.  No booking may be created when this is returned; the
// caller surfaces it to the visitor as a retryable failure.
var ErrAllocationFailed = errors.New("ticket allocation failed")
