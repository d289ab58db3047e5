package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/allocation"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/auth"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/store"
)

// Server is the JSON API over the three allocation desks plus the resource
// registry. Auth may be nil (dev mode), which disables the login gate.
type Server struct {
	Tables *allocation.Desk
	Halls  *allocation.Desk
	Shifts *allocation.Desk
	Store  store.Store
	Auth   *auth.Store
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api/v1", func(r chi.Router) {
		// availability is a read; leave it outside the login gate
		r.Get("/tables/availability", s.handleAvailability(s.Tables))
		r.Get("/halls/availability", s.handleAvailability(s.Halls))
		r.Get("/staff/availability", s.handleAvailability(s.Shifts))

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Route("/tables/reservations", s.deskRoutes(s.Tables))
			r.Route("/halls/bookings", s.deskRoutes(s.Halls))
			r.Route("/staff/shifts", s.deskRoutes(s.Shifts))
			r.Route("/resources", s.resourceRoutes)
		})
	})

	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	if s.Auth == nil {
		return next
	}
	return s.Auth.RequireAuth(next)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "store": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.Auth == nil {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "dev": true})
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	uid, err := s.Auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.Auth.SetSession(w, r, uid); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.Auth != nil {
		s.Auth.ClearSession(w)
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Start runs the server until ctx is cancelled, then drains.
func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	fmt.Printf("listening on %s\n", addr)
	return srv.ListenAndServe()
}

// bookingResponse is the JSON shape shared by all three modules.
type bookingResponse struct {
	ID           int64     `json:"id"`
	ResourceKind string    `json:"resource_kind"`
	ResourceID   int64     `json:"resource_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Status       string    `json:"status"`
	Quantity     int       `json:"quantity,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toBookingResponse(b booking.Booking) bookingResponse {
	return bookingResponse{
		ID:           b.ID,
		ResourceKind: string(b.Kind),
		ResourceID:   b.ResourceID,
		Start:        b.Interval.Start,
		End:          b.Interval.End,
		Status:       string(b.Status),
		Quantity:     b.Quantity,
		Note:         b.Note,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

type assignmentResponse struct {
	ID        int64  `json:"id"`
	BookingID int64  `json:"booking_id"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail,omitempty"`
	Status    string `json:"status"`
}

func toAssignmentResponse(a booking.Assignment) assignmentResponse {
	return assignmentResponse{
		ID:        a.ID,
		BookingID: a.BookingID,
		Kind:      a.Kind,
		Detail:    a.Detail,
		Status:    string(a.Status),
	}
}
