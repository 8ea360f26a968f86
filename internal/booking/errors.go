package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
)

// Ожидаемые отказы движка. Все детерминированы: повтор того же запроса
// без изменений даст тот же результат.
var (
	ErrSpaceUnavailable          = errors.New("space unavailable")
	ErrInvalidDateRange          = errors.New("invalid date range")
	ErrRentalDurationOutOfBounds = errors.New("rental duration out of bounds")
	ErrDateRangeConflict         = errors.New("date range conflict")
	ErrIllegalTransition         = errors.New("illegal transition")
	ErrUnauthorized              = errors.New("unauthorized")
)

// DurationError — длительность вне [Min, Max] помещения.
type DurationError struct {
	Days int
	Min  int
	Max  int
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("%s: %d days requested, allowed %d..%d", ErrRentalDurationOutOfBounds, e.Days, e.Min, e.Max)
}

func (e *DurationError) Unwrap() error { return ErrRentalDurationOutOfBounds }

// ConflictError несёт бронирование, с которым пересёкся запрос.
type ConflictError struct {
	BookingID uuid.UUID
	Range     calendar.DateRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: overlaps booking %s (%s)", ErrDateRangeConflict, e.BookingID, e.Range)
}

func (e *ConflictError) Unwrap() error { return ErrDateRangeConflict }

// TransitionError: попытка перехода, которую запрещает текущее состояние или время.
type TransitionError struct {
	From    model.BookingStatus
	To      model.BookingStatus
	Allowed []model.BookingStatus
	Reason  string
}

func (e *TransitionError) Error() string {
	allowed := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		allowed = append(allowed, string(s))
	}
	msg := fmt.Sprintf("%s: %s -> %s (allowed: [%s])", ErrIllegalTransition, e.From, e.To, strings.Join(allowed, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

func illegal(from, to model.BookingStatus, reason string) error {
	return &TransitionError{
		From:    from,
		To:      to,
		Allowed: AllowedTransitions(from),
		Reason:  reason,
	}
}

func unauthorized(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUnauthorized}, args...)...)
}
