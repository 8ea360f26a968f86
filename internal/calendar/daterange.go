package calendar

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrInvalidDateRange = errors.New("invalid date range")

// DateLayout — формат дат на границе API.
const DateLayout = "2006-01-02"

// DateRange: включительный диапазон календарных дней [Start, End].
// Границы всегда хранятся как полночь UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange создаёт диапазон и отбрасывает время суток.
// В отличие от временных интервалов границы не переставляются:
// перепутанные даты, ошибка клиента.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, ErrInvalidDateRange
	}
	r := DateRange{Start: DateOf(start), End: DateOf(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, ErrInvalidDateRange
	}
	return r, nil
}

// ParseDateRange разбирает пару дат формата YYYY-MM-DD.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start: %v", ErrInvalidDateRange, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end: %v", ErrInvalidDateRange, err)
	}
	return NewDateRange(s, e)
}

// DateOf — календарная дата t (в его часовом поясе) как полночь UTC.
func DateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Days: количество дней включительно.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Overlaps: [a,b] и [c,d] пересекаются, если a <= d && c <= b.
// Общий граничный день считается пересечением.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// Format: человекочитаемый вид для договоров и уведомлений.
func (r DateRange) Format() string {
	return fmt.Sprintf("%s – %s", r.Start.Format("02.01.2006"), r.End.Format("02.01.2006"))
}

// HasOverlap проверяет, пересекается ли newRange с existing,
// и возвращает индексы конфликтующих диапазонов.
func HasOverlap(newRange DateRange, existing []DateRange) (bool, []int) {
	var conflicts []int
	for i, r := range existing {
		if newRange.Overlaps(r) {
			conflicts = append(conflicts, i)
		}
	}
	return len(conflicts) > 0, conflicts
}

// MergeRanges склеивает пересекающиеся и соседние диапазоны.
// Результат отсортирован по началу.
func MergeRanges(ranges []DateRange) []DateRange {
	if len(ranges) == 0 {
		return []DateRange{}
	}
	sorted := make([]DateRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := []DateRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		// соседние дни тоже склеиваем: 10..15 и 16..20 -> 10..20
		if !r.Start.After(last.End.AddDate(0, 0, 1)) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Clip обрезает диапазоны по окну window, отбрасывая лежащие вне него.
func Clip(ranges []DateRange, window DateRange) []DateRange {
	out := make([]DateRange, 0, len(ranges))
	for _, r := range ranges {
		if !r.Overlaps(window) {
			continue
		}
		if r.Start.Before(window.Start) {
			r.Start = window.Start
		}
		if r.End.After(window.End) {
			r.End = window.End
		}
		out = append(out, r)
	}
	return out
}
