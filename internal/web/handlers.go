package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/allocation"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/store"
)

type createRequest struct {
	ResourceID int64     `json:"resource_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Quantity   int       `json:"quantity"`
	Note       string    `json:"note"`
}

type rescheduleRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type assignRequest struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// deskRoutes mounts the same lifecycle surface for every module; the desk
// carries the kind-specific rules.
func (s *Server) deskRoutes(d *allocation.Desk) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", s.handleList(d))
		r.Post("/", s.handleCreate(d))
		r.Get("/{id}", s.handleGet(d))
		r.Delete("/{id}", s.handleDelete(d))
		r.Post("/{id}/approve", s.handleTransition(d.Approve))
		r.Post("/{id}/reject", s.handleTransition(d.Reject))
		r.Post("/{id}/cancel", s.handleTransition(d.Cancel))
		r.Post("/{id}/complete", s.handleTransition(d.Complete))
		r.Post("/{id}/no-show", s.handleTransition(d.MarkNoShow))
		r.Post("/{id}/reschedule", s.handleReschedule(d))
		r.Get("/{id}/assignments", s.handleAssignments(d))
		r.Post("/{id}/assignments", s.handleAssign(d))
		r.Delete("/assignments/{assignmentID}", s.handleUnassign(d))
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (s *Server) handleCreate(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		b, err := d.Create(r.Context(), req.ResourceID, req.Start, req.End, req.Quantity, req.Note)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, toBookingResponse(b))
	}
}

func (s *Server) handleList(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := store.BookingFilter{Kind: d.Kind()}
		if v := r.URL.Query().Get("resource_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				respondError(w, errBadRequest("resource_id must be an integer"))
				return
			}
			f.ResourceID = id
		}
		if v := r.URL.Query().Get("status"); v != "" {
			f.Status = booking.Status(v)
		}
		bs, err := s.Store.ListBookings(r.Context(), f)
		if err != nil {
			respondError(w, err)
			return
		}
		out := make([]bookingResponse, 0, len(bs))
		for _, b := range bs {
			out = append(out, toBookingResponse(b))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleGet(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, errBadRequest("id must be an integer"))
			return
		}
		b, err := d.Get(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func (s *Server) handleDelete(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, errBadRequest("id must be an integer"))
			return
		}
		if err := d.Delete(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleTransition(op func(ctx context.Context, id int64) (booking.Booking, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, errBadRequest("id must be an integer"))
			return
		}
		b, err := op(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func (s *Server) handleReschedule(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, errBadRequest("id must be an integer"))
			return
		}
		var req rescheduleRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		b, err := d.Reschedule(r.Context(), id, req.Start, req.End)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func (s *Server) handleAssignments(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, errBadRequest("id must be an integer"))
			return
		}
		as, err := d.Assignments(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		out := make([]assignmentResponse, 0, len(as))
		for _, a := range as {
			out = append(out, toAssignmentResponse(a))
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleAssign(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, errBadRequest("id must be an integer"))
			return
		}
		var req assignRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if req.Kind == "" {
			respondError(w, errBadRequest("kind is required"))
			return
		}
		a, err := d.Assign(r.Context(), id, req.Kind, req.Detail)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, toAssignmentResponse(a))
	}
}

func (s *Server) handleUnassign(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "assignmentID")
		if err != nil {
			respondError(w, errBadRequest("assignment id must be an integer"))
			return
		}
		if err := d.Unassign(r.Context(), id); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleAvailability(d *allocation.Desk) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		resourceID, err := strconv.ParseInt(q.Get("resource_id"), 10, 64)
		if err != nil {
			respondError(w, errBadRequest("resource_id must be an integer"))
			return
		}
		start, err := time.Parse(time.RFC3339, q.Get("start"))
		if err != nil {
			respondError(w, errBadRequest("start must be RFC3339"))
			return
		}
		end, err := time.Parse(time.RFC3339, q.Get("end"))
		if err != nil {
			respondError(w, errBadRequest("end must be RFC3339"))
			return
		}
		free, err := d.CheckAvailability(r.Context(), resourceID, start, end)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"available": free})
	}
}

type resourceRequest struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type resourceResponse struct {
	ID       int64  `json:"id"`
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Active   bool   `json:"active"`
}

func (s *Server) resourceRoutes(r chi.Router) {
	r.Get("/", s.handleListResources)
	r.Post("/", s.handleCreateResource)
	r.Post("/{kind}/{id}/activate", s.handleSetResourceActive(true))
	r.Post("/{kind}/{id}/deactivate", s.handleSetResourceActive(false))
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	kind := booking.ResourceKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		respondError(w, errBadRequest("kind must be table, hall or staff"))
		return
	}
	rs, err := s.Store.ListResources(r.Context(), kind)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]resourceResponse, 0, len(rs))
	for _, res := range rs {
		out = append(out, resourceResponse{ID: res.ID, Kind: string(res.Kind), Name: res.Name, Capacity: res.Capacity, Active: res.Active})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	kind := booking.ResourceKind(req.Kind)
	if !kind.Valid() {
		respondError(w, errBadRequest("kind must be table, hall or staff"))
		return
	}
	if req.Name == "" {
		respondError(w, errBadRequest("name is required"))
		return
	}
	res := booking.Resource{Kind: kind, Name: req.Name, Capacity: req.Capacity, Active: true}
	if err := s.Store.CreateResource(r.Context(), &res); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resourceResponse{ID: res.ID, Kind: string(res.Kind), Name: res.Name, Capacity: res.Capacity, Active: res.Active})
}

func (s *Server) handleSetResourceActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := booking.ResourceKind(chi.URLParam(r, "kind"))
		if !kind.Valid() {
			respondError(w, errBadRequest("kind must be table, hall or staff"))
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, errBadRequest("id must be an integer"))
			return
		}
		if err := s.Store.SetResourceActive(r.Context(), kind, id, active); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
