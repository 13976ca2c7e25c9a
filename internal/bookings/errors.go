package bookings

import (
	"errors"
	"fmt"
)

var (
	// ErrBookingNotFound indicates the booking id does not exist.
	ErrBookingNotFound = errors.New("bookings: booking not found")

	// ErrNotBookingProfessional indicates the caller is not the professional
	// assigned to the booking.
	ErrNotBookingProfessional = errors.New("bookings: caller is not the assigned professional")

	// ErrCheckInRequired indicates check-out was attempted before check-in.
	ErrCheckInRequired = errors.New("bookings: check-in required before check-out")

	// ErrInvalidCoordinates indicates latitude/longitude outside the valid range.
	ErrInvalidCoordinates = errors.New("bookings: invalid check-out coordinates")

	// ErrPaymentNotConfigured indicates the booking has no payment intent to
	// capture against.
	ErrPaymentNotConfigured = errors.New("bookings: no payment intent on booking")

	// ErrLocationMismatch indicates the check-out location was too far from
	// the service address. Only returned when location enforcement is on.
	ErrLocationMismatch = errors.New("bookings: check-out location too far from service address")

	// ErrConcurrentlyModified indicates the booking left in_progress between
	// the precondition read and the row lock, i.e. a concurrent check-out won.
	ErrConcurrentlyModified = errors.New("bookings: booking modified concurrently")

	// ErrCriticalInconsistency indicates payment was captured but the booking
	// could not be marked completed. Requires manual reconciliation.
	ErrCriticalInconsistency = errors.New("bookings: payment captured but completion not persisted")
)

// InvalidStateError indicates the booking is not in a status that permits
// check-out.
type InvalidStateError struct {
	Current string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("bookings: cannot check out a booking in status %q", e.Current)
}
