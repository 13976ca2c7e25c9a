package bookings

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/handyhub/platform/internal/geo"
	"github.com/handyhub/platform/internal/observability/metrics"
	"github.com/handyhub/platform/internal/payments"
	"github.com/handyhub/platform/pkg/logging"
)

// settlementStore is the subset of Repository the service needs.
type settlementStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	BeginCheckOut(ctx context.Context, id uuid.UUID) (CheckOutTx, error)
}

// Notifier delivers post-commit booking notifications. Implementations must
// be best-effort: the settlement never depends on delivery.
type Notifier interface {
	CheckOutCompleted(ctx context.Context, b *Booking) error
}

// ServiceConfig carries the settlement tunables from the environment.
type ServiceConfig struct {
	// MaxDistanceMeters is the allowed gap between the service address and
	// the reported check-out position before it counts as a mismatch.
	MaxDistanceMeters float64
	// EnforceLocation turns the location check from a fraud signal into a
	// hard rejection.
	EnforceLocation bool
}

// Service settles bookings: it verifies check-out preconditions, captures
// the authorized payment and completes the booking atomically.
type Service struct {
	store    settlementStore
	gateway  payments.Gateway
	notifier Notifier
	metrics  *metrics.SettlementMetrics
	cfg      ServiceConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(store settlementStore, gateway payments.Gateway, notifier Notifier, m *metrics.SettlementMetrics, cfg ServiceConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxDistanceMeters <= 0 {
		cfg.MaxDistanceMeters = 150
	}
	return &Service{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
		logger:   logger.Component("bookings"),
		now:      time.Now,
	}
}

// CheckOutParams is the professional's check-out request.
type CheckOutParams struct {
	BookingID       uuid.UUID
	ActorID         uuid.UUID
	Latitude        float64
	Longitude       float64
	CompletionNotes string
}

// CheckOut completes an in-progress booking: it captures the payment and
// marks the booking completed in one transaction, holding a row lock across
// the capture so a concurrent check-out can never charge twice.
func (s *Service) CheckOut(ctx context.Context, params CheckOutParams) (*Booking, error) {
	booking, err := s.store.GetByID(ctx, params.BookingID)
	if err != nil {
		s.metrics.ObserveCheckOut("not_found")
		return nil, err
	}

	if err := s.checkPreconditions(booking, params); err != nil {
		s.metrics.ObserveCheckOut("rejected")
		return nil, err
	}

	if err := s.verifyLocation(booking, params); err != nil {
		s.metrics.ObserveCheckOut("rejected")
		return nil, err
	}

	tx, err := s.store.BeginCheckOut(ctx, params.BookingID)
	if err != nil {
		s.metrics.ObserveCheckOut("error")
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Re-check under the lock: a concurrent check-out may have completed the
	// booking between the read above and the lock, and it must not be
	// captured a second time.
	locked := tx.Booking()
	if locked.Status != StatusInProgress || locked.CheckedOutAt != nil {
		s.metrics.ObserveCheckOut("concurrent")
		return nil, ErrConcurrentlyModified
	}

	now := s.now().UTC()
	actualDuration := 0
	if locked.CheckedInAt != nil {
		actualDuration = int(math.Round(now.Sub(*locked.CheckedInAt).Seconds() / 60))
	}
	amountToCapture := locked.AmountAuthorizedCents + locked.TimeExtensionCents

	captureStart := time.Now()
	result, err := s.gateway.Capture(ctx, locked.PaymentIntentID, amountToCapture, "checkout:"+locked.ID.String())
	s.metrics.ObserveCaptureLatency(time.Since(captureStart).Seconds())
	if err != nil {
		s.metrics.ObserveCheckOut("capture_failed")
		s.logger.Error("payment capture failed",
			"booking_id", locked.ID,
			"payment_intent_id", locked.PaymentIntentID,
			"amount_cents", amountToCapture,
			"error", err)
		return nil, err
	}

	// The gateway is authoritative on the amount actually moved.
	amountCaptured := result.AmountReceived
	if amountCaptured == 0 {
		amountCaptured = amountToCapture
	}

	completion := Completion{
		CheckedOutAt:          now,
		Latitude:              params.Latitude,
		Longitude:             params.Longitude,
		ActualDurationMinutes: actualDuration,
		CompletionNotes:       params.CompletionNotes,
		AmountCapturedCents:   amountCaptured,
		PaymentStatus:         "succeeded",
	}
	if err := tx.Complete(ctx, completion); err != nil {
		return nil, s.criticalInconsistency(locked, completion, now, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, s.criticalInconsistency(locked, completion, now, err)
	}

	s.metrics.ObserveCheckOut("success")

	completed := *locked
	completed.Status = StatusCompleted
	completed.CheckedOutAt = &now
	completed.CheckOutLatitude = &params.Latitude
	completed.CheckOutLongitude = &params.Longitude
	completed.ActualDurationMinutes = &actualDuration
	completed.CompletionNotes = params.CompletionNotes
	completed.AmountCapturedCents = amountCaptured
	completed.PaymentStatus = "succeeded"
	completed.UpdatedAt = now

	if s.notifier != nil {
		if err := s.notifier.CheckOutCompleted(ctx, &completed); err != nil {
			s.logger.Warn("check-out notification enqueue failed",
				"booking_id", completed.ID, "error", err)
		}
	}

	return &completed, nil
}

func (s *Service) checkPreconditions(b *Booking, params CheckOutParams) error {
	if b.ProfessionalID != params.ActorID {
		return ErrNotBookingProfessional
	}
	if b.Status != StatusInProgress {
		return &InvalidStateError{Current: b.Status}
	}
	if b.CheckedInAt == nil {
		return ErrCheckInRequired
	}
	if !geo.ValidCoordinates(params.Latitude, params.Longitude) {
		return ErrInvalidCoordinates
	}
	if b.PaymentIntentID == "" {
		return ErrPaymentNotConfigured
	}
	return nil
}

// verifyLocation compares the reported position against the service address.
// A mismatch is a fraud signal, not a rejection, unless enforcement is on.
func (s *Service) verifyLocation(b *Booking, params CheckOutParams) error {
	v := geo.Verify(b.ServiceLatitude, b.ServiceLongitude, params.Latitude, params.Longitude, s.cfg.MaxDistanceMeters)
	if v.Verified {
		return nil
	}
	s.metrics.ObserveLocationMismatch()
	s.logger.Warn("check-out location beyond allowed distance",
		"booking_id", b.ID,
		"professional_id", b.ProfessionalID,
		"distance_meters", v.DistanceMeters,
		"max_meters", s.cfg.MaxDistanceMeters)
	if s.cfg.EnforceLocation {
		return ErrLocationMismatch
	}
	return nil
}

// criticalInconsistency is the post-capture failure path: money moved but the
// booking row could not be completed. The full reconciliation context goes to
// the log; the caller only sees a generic failure so no retry re-captures.
func (s *Service) criticalInconsistency(b *Booking, c Completion, at time.Time, cause error) error {
	s.metrics.ObserveCheckOut("inconsistent")
	var checkedInAt time.Time
	if b.CheckedInAt != nil {
		checkedInAt = *b.CheckedInAt
	}
	s.logger.Error("payment captured but booking completion failed",
		"booking_id", b.ID,
		"payment_intent_id", b.PaymentIntentID,
		"amount_captured_cents", c.AmountCapturedCents,
		"checked_in_at", checkedInAt,
		"checked_out_at", at,
		"error", cause)
	return ErrCriticalInconsistency
}
