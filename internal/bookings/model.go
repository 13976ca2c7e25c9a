package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking lifecycle statuses. Check-out is the only exit from in_progress
// and the transition is one-way.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Booking is a scheduled service visit between a customer and a professional.
// Monetary amounts are minor units (cents) in the booking's currency.
type Booking struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	ProfessionalID uuid.UUID
	ServiceName    string
	Status         string

	ScheduledAt  time.Time
	CheckedInAt  *time.Time
	CheckedOutAt *time.Time

	ServiceLatitude   float64
	ServiceLongitude  float64
	CheckOutLatitude  *float64
	CheckOutLongitude *float64

	EstimatedDurationMinutes int
	ActualDurationMinutes    *int
	CompletionNotes          string

	PaymentIntentID       string
	PaymentStatus         string
	Currency              string
	AmountAuthorizedCents int64
	TimeExtensionCents    int64
	AmountCapturedCents   int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Completion holds everything the check-out writes onto the booking row.
type Completion struct {
	CheckedOutAt          time.Time
	Latitude              float64
	Longitude             float64
	ActualDurationMinutes int
	CompletionNotes       string
	AmountCapturedCents   int64
	PaymentStatus         string
}
