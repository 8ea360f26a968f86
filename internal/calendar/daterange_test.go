package calendar

import (
	"errors"
	"testing"
	"time"
)

func mustDate(t *testing.T, year int, month time.Month, day int) time.Time {
	t.Helper()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	r, err := ParseDateRange(start, end)
	if err != nil {
		t.Fatalf("parse range %s..%s: %v", start, end, err)
	}
	return r
}

//
// NewDateRange / ParseDateRange
//

func TestNewDateRange_DropsTimeOfDay(t *testing.T) {
	start := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	end := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)

	r, err := NewDateRange(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Start.Equal(mustDate(t, 2025, 3, 10)) || !r.End.Equal(mustDate(t, 2025, 3, 12)) {
		t.Fatalf("unexpected range %v", r)
	}
}

func TestNewDateRange_EndBeforeStart(t *testing.T) {
	_, err := NewDateRange(mustDate(t, 2025, 3, 12), mustDate(t, 2025, 3, 10))
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestNewDateRange_Zero(t *testing.T) {
	_, err := NewDateRange(time.Time{}, mustDate(t, 2025, 3, 10))
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestParseDateRange_BadFormat(t *testing.T) {
	_, err := ParseDateRange("10.03.2025", "2025-03-12")
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestDays_Inclusive(t *testing.T) {
	cases := []struct {
		start, end string
		want       int
	}{
		{"2025-03-10", "2025-03-10", 1},
		{"2025-03-10", "2025-03-12", 3},
		{"2025-02-27", "2025-03-01", 3},
		{"2024-02-27", "2024-03-01", 4},
	}
	for _, c := range cases {
		if got := mustRange(t, c.start, c.end).Days(); got != c.want {
			t.Fatalf("%s..%s: expected %d days, got %d", c.start, c.end, c.want, got)
		}
	}
}

//
// Overlaps / HasOverlap
//

func TestOverlaps_SharedBoundaryDay(t *testing.T) {
	existing := mustRange(t, "2025-03-10", "2025-03-15")

	if !mustRange(t, "2025-03-15", "2025-03-20").Overlaps(existing) {
		t.Fatalf("expected shared day 15 to overlap")
	}
	if mustRange(t, "2025-03-16", "2025-03-20").Overlaps(existing) {
		t.Fatalf("expected adjacent range not to overlap")
	}
	if !mustRange(t, "2025-03-01", "2025-03-31").Overlaps(existing) {
		t.Fatalf("expected enclosing range to overlap")
	}
}

func TestHasOverlap_ReturnsConflictIndexes(t *testing.T) {
	existing := []DateRange{
		mustRange(t, "2025-03-01", "2025-03-05"),
		mustRange(t, "2025-03-10", "2025-03-15"),
		mustRange(t, "2025-03-20", "2025-03-25"),
	}

	has, conflicts := HasOverlap(mustRange(t, "2025-03-14", "2025-03-21"), existing)
	if !has {
		t.Fatalf("expected overlap")
	}
	if len(conflicts) != 2 || conflicts[0] != 1 || conflicts[1] != 2 {
		t.Fatalf("unexpected conflicts %v", conflicts)
	}

	has, _ = HasOverlap(mustRange(t, "2025-03-06", "2025-03-09"), existing)
	if has {
		t.Fatalf("expected no overlap in the gap")
	}
}

//
// MergeRanges / Clip
//

func TestMergeRanges_JoinsAdjacentAndOverlapping(t *testing.T) {
	merged := MergeRanges([]DateRange{
		mustRange(t, "2025-03-16", "2025-03-20"),
		mustRange(t, "2025-03-10", "2025-03-15"),
		mustRange(t, "2025-03-18", "2025-03-22"),
		mustRange(t, "2025-04-01", "2025-04-02"),
	})

	if len(merged) != 2 {
		t.Fatalf("expected 2 ranges, got %v", merged)
	}
	if merged[0] != mustRange(t, "2025-03-10", "2025-03-22") {
		t.Fatalf("unexpected first range %v", merged[0])
	}
	if merged[1] != mustRange(t, "2025-04-01", "2025-04-02") {
		t.Fatalf("unexpected second range %v", merged[1])
	}
}

func TestClip_TrimsToWindow(t *testing.T) {
	window := mustRange(t, "2025-03-12", "2025-03-31")
	clipped := Clip([]DateRange{
		mustRange(t, "2025-03-01", "2025-03-05"),
		mustRange(t, "2025-03-10", "2025-03-15"),
		mustRange(t, "2025-03-30", "2025-04-03"),
	}, window)

	if len(clipped) != 2 {
		t.Fatalf("expected 2 ranges, got %v", clipped)
	}
	if clipped[0] != mustRange(t, "2025-03-12", "2025-03-15") {
		t.Fatalf("unexpected first range %v", clipped[0])
	}
	if clipped[1] != mustRange(t, "2025-03-30", "2025-03-31") {
		t.Fatalf("unexpected second range %v", clipped[1])
	}
}
