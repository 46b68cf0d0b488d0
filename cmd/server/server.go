// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/codr1/gotnext/internal/api"
	"github.com/codr1/gotnext/internal/api/authz"
	"github.com/codr1/gotnext/internal/api/courts"
	"github.com/codr1/gotnext/internal/api/reservations"
	"github.com/codr1/gotnext/internal/api/waitlist"
	"github.com/codr1/gotnext/internal/config"
	"github.com/codr1/gotnext/internal/ratelimit"
)

func newServer(cfg *config.Config, limiter *ratelimit.Limiter) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithParticipant,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithContentType,
	)

	// Register routes
	registerRoutes(router, limiter.Middleware(func(r *http.Request) string {
		return authz.ParticipantFromContext(r.Context())
	}))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, limit api.Middleware) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Catalog routes
	mux.HandleFunc("GET /api/v1/gyms", courts.HandleGymList)
	mux.HandleFunc("GET /api/v1/gyms/{id}/courts", courts.HandleGymCourts)
	mux.HandleFunc("GET /api/v1/courts/{id}", courts.HandleCourtGet)
	mux.HandleFunc("GET /api/v1/courts/{id}/availability", courts.HandleCourtAvailability)
	mux.HandleFunc("GET /api/v1/courts/{id}/reservations", courts.HandleCourtReservations)

	// Reservation routes
	mux.Handle("POST /api/v1/reservations", limit(http.HandlerFunc(reservations.HandleReservationCreate)))
	mux.HandleFunc("GET /api/v1/reservations/mine", reservations.HandleMyReservations)
	mux.HandleFunc("DELETE /api/v1/reservations/{id}", reservations.HandleReservationCancel)

	// Got next routes
	mux.Handle("POST /api/v1/courts/{id}/gotnext", limit(http.HandlerFunc(waitlist.HandleJoin)))
	mux.HandleFunc("GET /api/v1/courts/{id}/gotnext/position", waitlist.HandlePosition)
	mux.HandleFunc("DELETE /api/v1/gotnext/{queueID}", waitlist.HandleLeave)
}
