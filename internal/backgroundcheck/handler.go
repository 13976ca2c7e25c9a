package backgroundcheck

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/handyhub/platform/pkg/logging"
)

const maxWebhookBody = 1 << 20

// Handler handles HTTP requests for background-check webhooks
type Handler struct {
	processor *Processor
	logger    *logging.Logger
}

// NewHandler creates a new webhook handler
func NewHandler(processor *Processor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{processor: processor, logger: logger}
}

// Receive handles POST /webhooks/background-checks/{provider} requests
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")

	prov, ok := h.processor.Provider(providerName)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	signature := r.Header.Get(prov.SignatureHeader())

	ack, err := h.processor.Ingest(r.Context(), rawBody, signature, providerName)
	if err != nil {
		switch {
		case errors.Is(err, ErrSignatureInvalid):
			writeError(w, http.StatusBadRequest, "invalid signature")
		default:
			h.logger.Error("webhook processing failed",
				"provider", providerName, "error", err)
			writeError(w, http.StatusInternalServerError, "processing failed")
		}
		return
	}

	resp := map[string]bool{"received": ack.Received}
	if ack.Duplicate {
		resp["duplicate"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
