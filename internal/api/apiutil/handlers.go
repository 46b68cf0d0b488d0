package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/gotnext/internal/api/authz"
	"github.com/codr1/gotnext/internal/booking"
	"github.com/codr1/gotnext/internal/courts"
	"github.com/codr1/gotnext/internal/db"
	"github.com/codr1/gotnext/internal/gotnext"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	// Blocking lists the reservation ids behind a booking conflict.
	Blocking []string `json:"blocking,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// StatusForError maps domain errors to an HTTP status and client message.
func StatusForError(err error) (int, string) {
	var handlerErr HandlerError
	var fieldErr FieldError
	switch {
	case errors.As(err, &handlerErr):
		return handlerErr.Status, handlerErr.Message
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, fieldErr.Error()
	case errors.Is(err, db.ErrUnavailable):
		return http.StatusServiceUnavailable, "Storage unavailable, try again"
	case errors.Is(err, booking.ErrInvalidWindow):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, booking.ErrOwnerRequired),
		errors.Is(err, gotnext.ErrParticipantRequired),
		errors.Is(err, authz.ErrUnauthenticated):
		return http.StatusUnauthorized, "Participant id is required"
	case errors.Is(err, booking.ErrNotOwner), errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, booking.ErrConflict):
		return http.StatusConflict, "Court already reserved for that time"
	case errors.Is(err, gotnext.ErrAlreadyQueued):
		return http.StatusConflict, "Already queued on this court"
	case errors.Is(err, gotnext.ErrNoActiveQueue):
		return http.StatusNotFound, "Court has no active queue"
	case errors.Is(err, gotnext.ErrNotQueued), errors.Is(err, gotnext.ErrEntryNotFound):
		return http.StatusNotFound, "Not queued on this court"
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound, "Reservation not found"
	case errors.Is(err, courts.ErrCourtNotFound):
		return http.StatusNotFound, "Court not found"
	case errors.Is(err, courts.ErrGymNotFound):
		return http.StatusNotFound, "Gym not found"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// WriteError writes err as an ErrorResponse with its mapped status.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := StatusForError(err)
	response := ErrorResponse{Error: message}

	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		for _, reservation := range conflict.Blocking {
			response.Blocking = append(response.Blocking, reservation.ID)
		}
	}

	logger := log.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}

	if writeErr := WriteJSON(w, status, response); writeErr != nil {
		logger.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// RequireParticipant writes a 401 and returns false when the request
// carries no participant id.
func RequireParticipant(w http.ResponseWriter, r *http.Request) (string, bool) {
	participantID, err := authz.RequireParticipant(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Participant access denied: unauthenticated")
		WriteError(w, r, err)
		return "", false
	}
	return participantID, true
}
