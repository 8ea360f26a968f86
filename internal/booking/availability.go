package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
)

// AvailabilityResult — успешная проверка доступности.
type AvailabilityResult struct {
	Range calendar.DateRange
	Days  int
}

// CheckAvailability проверяет, можно ли забронировать space на [start, end].
// today: текущая календарная дата. Порядок проверок фиксирован,
// возвращается первая нарушенная:
//  1. помещение активно;
//  2. диапазон корректен и не в прошлом;
//  3. длительность в пределах min/max;
//  4. нет пересечения с действующими бронированиями.
func CheckAvailability(
	space *model.Space,
	start, end time.Time,
	existing []model.Booking,
	today time.Time,
) (AvailabilityResult, error) {
	if space == nil || !space.IsActive {
		return AvailabilityResult{}, ErrSpaceUnavailable
	}

	requested, err := calendar.NewDateRange(start, end)
	if err != nil {
		return AvailabilityResult{}, ErrInvalidDateRange
	}
	if requested.Start.Before(calendar.DateOf(today)) {
		return AvailabilityResult{}, ErrInvalidDateRange
	}

	days := requested.Days()
	if days < space.MinRentalDays || days > space.MaxRentalDays {
		return AvailabilityResult{}, &DurationError{Days: days, Min: space.MinRentalDays, Max: space.MaxRentalDays}
	}

	var (
		blocking []uuid.UUID
		occupied []calendar.DateRange
	)
	for i := range existing {
		b := &existing[i]
		if b.SpaceID != space.ID || !b.Status.BlocksCalendar() {
			continue
		}
		blocking = append(blocking, b.ID)
		occupied = append(occupied, BookedRange(b))
	}
	if has, conflicts := calendar.HasOverlap(requested, occupied); has {
		first := conflicts[0]
		return AvailabilityResult{}, &ConflictError{BookingID: blocking[first], Range: occupied[first]}
	}

	return AvailabilityResult{Range: requested, Days: days}, nil
}

// OccupiedRanges: занятые дни помещения внутри окна, склеенные.
// Используется календарём на странице объявления.
func OccupiedRanges(bookings []model.Booking, window calendar.DateRange) []calendar.DateRange {
	ranges := make([]calendar.DateRange, 0, len(bookings))
	for _, b := range bookings {
		if !b.Status.BlocksCalendar() {
			continue
		}
		ranges = append(ranges, BookedRange(&b))
	}
	return calendar.MergeRanges(calendar.Clip(ranges, window))
}

// BookedRange — диапазон дат бронирования. Даты хранятся как полночь UTC.
func BookedRange(b *model.Booking) calendar.DateRange {
	return calendar.DateRange{
		Start: calendar.DateOf(b.StartDate.UTC()),
		End:   calendar.DateOf(b.EndDate.UTC()),
	}
}
