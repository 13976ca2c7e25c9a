package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/handyhub/platform/internal/identity"
	"github.com/handyhub/platform/internal/payments"
	"github.com/handyhub/platform/pkg/logging"
)

// Handler handles HTTP requests for booking settlement
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new bookings handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type checkOutRequest struct {
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	CompletionNotes string  `json:"completion_notes"`
}

type checkOutBooking struct {
	ID                    string    `json:"id"`
	Status                string    `json:"status"`
	CheckedOutAt          time.Time `json:"checked_out_at"`
	ActualDurationMinutes int       `json:"actual_duration_minutes"`
	AmountCaptured        int64     `json:"amount_captured"`
}

type checkOutResponse struct {
	Success bool            `json:"success"`
	Booking checkOutBooking `json:"booking"`
}

// CheckOut handles POST /bookings/{bookingID}/checkout requests
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	actor, ok := identity.ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	actorID, err := uuid.Parse(actor)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid actor identity")
		return
	}

	var req checkOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	booking, err := h.svc.CheckOut(r.Context(), CheckOutParams{
		BookingID:       bookingID,
		ActorID:         actorID,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		CompletionNotes: req.CompletionNotes,
	})
	if err != nil {
		h.writeCheckOutError(w, bookingID, err)
		return
	}

	resp := checkOutResponse{
		Success: true,
		Booking: checkOutBooking{
			ID:             booking.ID.String(),
			Status:         booking.Status,
			AmountCaptured: booking.AmountCapturedCents,
		},
	}
	if booking.CheckedOutAt != nil {
		resp.Booking.CheckedOutAt = *booking.CheckedOutAt
	}
	if booking.ActualDurationMinutes != nil {
		resp.Booking.ActualDurationMinutes = *booking.ActualDurationMinutes
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeCheckOutError(w http.ResponseWriter, bookingID uuid.UUID, err error) {
	var stateErr *InvalidStateError

	switch {
	case errors.Is(err, ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case errors.Is(err, ErrNotBookingProfessional):
		writeError(w, http.StatusForbidden, "not the assigned professional")
	case errors.Is(err, ErrLocationMismatch):
		writeError(w, http.StatusForbidden, "check-out location too far from service address")
	case errors.As(err, &stateErr):
		writeError(w, http.StatusConflict, stateErr.Error())
	case errors.Is(err, ErrConcurrentlyModified):
		writeError(w, http.StatusConflict, "booking was modified concurrently")
	case errors.Is(err, ErrCheckInRequired):
		writeError(w, http.StatusBadRequest, "check-in required before check-out")
	case errors.Is(err, ErrInvalidCoordinates):
		writeError(w, http.StatusBadRequest, "invalid coordinates")
	case errors.Is(err, ErrPaymentNotConfigured):
		writeError(w, http.StatusBadRequest, "booking has no payment method configured")
	case errors.Is(err, payments.ErrCaptureFailed):
		writeError(w, http.StatusBadGateway, "payment capture failed, please retry")
	default:
		h.logger.Error("check-out failed", "booking_id", bookingID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
