// Package api exposes the booking engine over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reserva/internal/access"
	"reserva/internal/activity"
	"reserva/internal/booking"
	"reserva/internal/metrics"
	"reserva/internal/models"
)

// HTTPServer serves the reservation API.
type HTTPServer struct {
	booking *booking.Service
	access  *access.Service
	auth    *Authenticator
	logger  zerolog.Logger
	server  *http.Server
}

// NewHTTPServer wires the routes onto a ServeMux.
func NewHTTPServer(addr string, svc *booking.Service, acc *access.Service, auth *Authenticator, logger zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		booking: svc,
		access:  acc,
		auth:    auth,
		logger:  logger.With().Str("component", "api").Logger(),
	}

	mux := http.NewServeMux()
	s.route(mux, "GET /api/rooms", "rooms_list", s.handleListRooms)
	s.route(mux, "POST /api/rooms", "rooms_create", s.handleCreateRoom)
	s.route(mux, "POST /api/rooms/validate", "rooms_validate", s.handleValidateRoom)
	s.route(mux, "GET /api/rooms/{id}", "rooms_get", s.handleGetRoom)
	s.route(mux, "PATCH /api/rooms/{id}", "rooms_update", s.handleUpdateRoom)
	s.route(mux, "GET /api/rooms/{id}/slots", "rooms_slots", s.handleRoomSlots)
	s.route(mux, "GET /api/reservations", "reservations_list", s.handleListReservations)
	s.route(mux, "POST /api/reservations", "reservations_create", s.handleCreateReservation)
	s.route(mux, "GET /api/reservations/{id}", "reservations_get", s.handleGetReservation)
	s.route(mux, "PATCH /api/reservations/{id}/{action}", "reservations_transition", s.handleTransition)
	s.route(mux, "GET /api/activity", "activity_list", s.handleListActivity)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return s
}

// Handler returns the root handler, mostly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("API server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) route(mux *http.ServeMux, pattern, name string, h http.HandlerFunc) {
	mux.Handle(pattern, s.instrument(name, s.authenticate(withRequestOrigin(h))))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		metrics.IncHTTP(name, strconv.Itoa(rec.status))
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// withRequestOrigin attaches client ip and user agent for activity records.
func withRequestOrigin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := activity.Origin{IP: clientIP(r), UserAgent: r.UserAgent()}
		next(w, r.WithContext(activity.WithOrigin(r.Context(), origin)))
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrClientInactive):
		return http.StatusForbidden
	case errors.Is(err, models.ErrRoomInactive):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConcurrentModification):
		return http.StatusConflict
	}

	switch models.KindOf(err) {
	case models.KindInvalidInput, models.KindSlotMisaligned:
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindSlotConflict, models.KindInvalidTransition:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *HTTPServer) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, status, string(models.KindInternal), "internal error")
		return
	}
	code := string(models.KindOf(err))
	if errors.Is(err, models.ErrConcurrentModification) {
		code = "concurrent_modification"
	}
	writeError(w, status, code, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func caller(r *http.Request) models.Caller {
	c, _ := CallerFrom(r.Context())
	return c
}
