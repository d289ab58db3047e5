package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/auth"
	"github.com/IT24101129/RestaurantEventManagement-sub001/internal/booking"
)

type errorResponse struct {
	Error    string          `json:"error"`
	Conflict *conflictDetail `json:"conflict,omitempty"`
}

type conflictDetail struct {
	BookingID int64     `json:"booking_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequestError{msg: msg} }

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: encode response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadRequest("malformed request body")
	}
	return nil
}

// respondError maps domain errors onto HTTP statuses. Conflicts carry the
// blocking booking so clients can offer an alternative slot.
func respondError(w http.ResponseWriter, err error) {
	var (
		badReq      *badRequestError
		validation  *booking.ValidationError
		interval    *booking.InvalidIntervalError
		notFound    *booking.NotFoundError
		unknownRes  *booking.UnknownResourceError
		conflict    *booking.ConflictError
		transition  *booking.TransitionError
		notApproved *booking.NotApprovedError
		contention  *booking.ContentionError
	)
	switch {
	case errors.As(err, &badReq):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: badReq.msg})
	case errors.As(err, &validation), errors.As(err, &interval):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.As(err, &notFound), errors.As(err, &unknownRes), errors.Is(err, booking.ErrAssignmentNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &conflict):
		respondJSON(w, http.StatusConflict, errorResponse{
			Error: err.Error(),
			Conflict: &conflictDetail{
				BookingID: conflict.With,
				Start:     conflict.Interval.Start,
				End:       conflict.Interval.End,
			},
		})
	case errors.As(err, &transition), errors.As(err, &notApproved):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &contention):
		w.Header().Set("Retry-After", "1")
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	default:
		log.Printf("web: internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
