package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/repository"
	"github.com/spacefindr/core/internal/spaces"
	"github.com/spacefindr/core/internal/vacancy"
)

type errorResp struct {
	Error  string              `json:"error"`
	Fields []spaces.FieldError `json:"fields,omitempty"`
}

func jsonOK(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonOK(w, code, errorResp{Error: msg})
}

// fail отвечает кодом, соответствующим доменной ошибке.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs spaces.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		jsonOK(w, http.StatusUnprocessableEntity, errorResp{Error: "invalid form", Fields: fieldErrs})
	case errors.Is(err, booking.ErrInvalidDateRange), errors.Is(err, calendar.ErrInvalidDateRange),
		errors.Is(err, vacancy.ErrInvalidReport):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, booking.ErrRentalDurationOutOfBounds):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, booking.ErrDateRangeConflict), errors.Is(err, repository.ErrStaleBooking), errors.Is(err, repository.ErrStaleReport):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrSpaceUnavailable), errors.Is(err, booking.ErrIllegalTransition):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, booking.ErrUnauthorized):
		if _, ok := booking.ActorFrom(r.Context()); !ok {
			jsonError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		jsonError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, repository.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lock.ErrNotAcquired):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "timeout", http.StatusGatewayTimeout)
	default:
		log.Printf("http: %s %s: %v", r.Method, r.URL.Path, err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
