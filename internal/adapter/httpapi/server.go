package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cellarworks/vintner-backend/internal/domain"
	"github.com/cellarworks/vintner-backend/internal/usecase/ledger"
	"github.com/cellarworks/vintner-backend/internal/usecase/rating"
	"github.com/cellarworks/vintner-backend/internal/usecase/shareprice"
)

// Server exposes the economic engines over HTTP. Every /v1 route requires the
// shared bearer token; the engines themselves stay transport-agnostic.
type Server struct {
	token  string
	log    *slog.Logger
	ledger *ledger.PrestigeService
	rating *rating.CreditRatingService
	shares *shareprice.SharePriceService
	events domain.EventRepository
	mux    *chi.Mux
}

// New creates a new API server
func New(
	token string,
	logger *slog.Logger,
	ledgerService *ledger.PrestigeService,
	ratingService *rating.CreditRatingService,
	shareService *shareprice.SharePriceService,
	eventRepo domain.EventRepository,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		token:  token,
		log:    logger,
		ledger: ledgerService,
		rating: ratingService,
		shares: shareService,
		events: eventRepo,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/companies/{id}/prestige", s.handlePrestige)
		r.Get("/companies/{id}/relationship", s.handleRelationship)
		r.Get("/companies/{id}/credit-rating", s.handleCreditRating)
		r.Get("/companies/{id}/share-metrics", s.handleShareMetrics)
		r.Post("/companies/{id}/share-price/initialize", s.handleInitializePrice)
		r.Post("/companies/{id}/share-price/adjust", s.handleAdjustPrice)
		r.Post("/companies/{id}/sweep", s.handleSweep)

		r.Post("/events", s.handleRecordEvent)
		r.Put("/events/base", s.handleUpsertBaseEvent)
	})
}

// authMiddleware validates the shared bearer token. Missing or mismatched
// tokens are rejected before any handler runs.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if token != s.token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		)
	})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

// writeServiceError maps engine errors onto HTTP statuses: unknown entities
// are 404, everything else is a 500
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
