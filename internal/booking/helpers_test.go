package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/model"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func int64p(v int64) *int64 { return &v }

func newSpace() *model.Space {
	return &model.Space{
		ID:                 uuid.New(),
		OwnerID:            uuid.New(),
		Title:              "Loft Kreuzberg",
		ImageURL:           "https://img.example/loft.jpg",
		PricePerDay:        100,
		MinRentalDays:      1,
		MaxRentalDays:      365,
		CancellationPolicy: model.CancellationModerate,
		IsActive:           true,
	}
}

func newEngineAt(t *testing.T, now time.Time) (*Engine, *FixedClock) {
	t.Helper()
	clock := &FixedClock{T: now}
	return NewEngine(clock, time.UTC), clock
}

func tenant() Actor { return Actor{ID: uuid.New(), Role: model.RoleTenant} }
func admin() Actor  { return Actor{ID: uuid.New(), Role: model.RoleAdmin} }

func landlordOf(b *model.Booking) Actor {
	return Actor{ID: b.LandlordID, Role: model.RoleLandlord}
}

func tenantOf(b *model.Booking) Actor {
	return Actor{ID: b.TenantID, Role: model.RoleTenant}
}

// apply: то, что делает репозиторий после успешной проверки.
func apply(t *testing.T, tr *Transition, err error) *model.Booking {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected transition error: %v", err)
	}
	next := tr.Next
	return &next
}

// requestBooking создаёт бронирование через движок.
func requestBooking(t *testing.T, e *Engine, space *model.Space, start, end time.Time) *model.Booking {
	t.Helper()
	tr, _, err := e.Request(tenant(), space, Request{Start: start, End: end}, nil)
	return apply(t, tr, err)
}

// applier — apply с привязанным t, чтобы цепочки переходов читались в одну строку.
func applier(t *testing.T) func(*Transition, error) *model.Booking {
	return func(tr *Transition, err error) *model.Booking {
		t.Helper()
		return apply(t, tr, err)
	}
}
