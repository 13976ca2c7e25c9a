package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/handyhub/platform/internal/backgroundcheck"
	"github.com/handyhub/platform/internal/bookings"
	httpmiddleware "github.com/handyhub/platform/internal/http/middleware"
	"github.com/handyhub/platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	BookingsHandler *bookings.Handler
	WebhookHandler  *backgroundcheck.Handler
	MetricsHandler  http.Handler

	// JWT secret for professional-facing endpoints
	ProfessionalJWTSecret string

	CORSAllowedOrigins []string

	// Webhook rate limiting (requests per second per IP)
	WebhookRateLimit float64
	WebhookRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	rate, burst := cfg.WebhookRateLimit, cfg.WebhookRateBurst
	if rate <= 0 {
		rate = 10
	}
	if burst <= 0 {
		burst = 20
	}

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WebhookHandler != nil {
			public.With(httpmiddleware.RateLimit(rate, burst)).
				Post("/webhooks/background-checks/{provider}", cfg.WebhookHandler.Receive)
		}
	})

	// Professional-facing endpoints (JWT protected)
	if cfg.BookingsHandler != nil {
		r.Group(func(pro chi.Router) {
			pro.Use(httpmiddleware.RateLimit(rate, burst))
			pro.Use(httpmiddleware.ProfessionalJWT(cfg.ProfessionalJWTSecret))
			pro.Post("/bookings/{bookingID}/checkout", cfg.BookingsHandler.CheckOut)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
