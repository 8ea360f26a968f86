package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/payment"
	"github.com/spacefindr/core/internal/repository"
)

func TestBookingService_ConcurrentRequestsOnlyOneWins(t *testing.T) {
	env := newEnv(t)
	space := env.seedSpace(t, newLandlord(), nil)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// все диапазоны пересекаются с 12 марта
			_, _, err := env.booking.RequestBooking(as(newTenant()), space.ID, booking.Request{
				Start: day(10 + i%3),
				End:   day(12 + i%2),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, booking.ErrDateRangeConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || conflicts != n-1 {
		t.Fatalf("wins=%d conflicts=%d, want 1 and %d", wins, conflicts, n-1)
	}
	active, _ := env.bookings.ListActiveBySpace(context.Background(), space.ID)
	if len(active) != 1 {
		t.Fatalf("expected 1 stored booking, got %d", len(active))
	}
}

func TestBookingService_RequestValidation(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	space := env.seedSpace(t, owner, func(s *model.Space) { s.MinRentalDays = 2; s.MaxRentalDays = 30 })
	inactive := env.seedSpace(t, owner, func(s *model.Space) { s.IsActive = false })
	tenant := newTenant()

	cases := []struct {
		name    string
		spaceID uuid.UUID
		start   time.Time
		end     time.Time
		want    error
	}{
		{"inactive", inactive.ID, day(10), day(12), booking.ErrSpaceUnavailable},
		{"reversed", space.ID, day(12), day(10), booking.ErrInvalidDateRange},
		{"past", space.ID, time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC), day(3), booking.ErrInvalidDateRange},
		{"too short", space.ID, day(10), day(10), booking.ErrRentalDurationOutOfBounds},
		{"too long", space.ID, day(1), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), booking.ErrRentalDurationOutOfBounds},
		{"unknown space", uuid.New(), day(10), day(12), repository.ErrNotFound},
	}
	for _, tc := range cases {
		_, _, err := env.booking.RequestBooking(as(tenant), tc.spaceID, booking.Request{Start: tc.start, End: tc.end})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	if _, _, err := env.booking.RequestBooking(context.Background(), space.ID, booking.Request{Start: day(10), End: day(12)}); !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("anonymous: expected ErrUnauthorized, got %v", err)
	}
	if _, _, err := env.booking.RequestBooking(as(owner), space.ID, booking.Request{Start: day(10), End: day(12)}); !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("owner: expected ErrUnauthorized, got %v", err)
	}
}

func TestBookingService_FullLifecycleWithDeposit(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	tenant := newTenant()
	space := env.seedSpace(t, owner, func(s *model.Space) {
		s.DepositRequired = true
		s.DepositAmount = 1000
	})

	b, price, err := env.booking.RequestBooking(as(tenant), space.ID, booking.Request{Start: day(10), End: day(12), Message: "pop-up"})
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}
	if price.TotalPrice != 330 || b.DepositAmount != 1000 {
		t.Fatalf("unexpected price %+v", price)
	}

	if _, err := env.booking.Confirm(as(tenant), b.ID); !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("tenant confirm: expected ErrUnauthorized, got %v", err)
	}
	if b, err = env.booking.Confirm(as(owner), b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if b, err = env.booking.Pay(as(tenant), b.ID); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if b.PaymentStatus != model.PaymentStatusPaid || b.PaymentReference == "" {
		t.Fatalf("unexpected payment %s/%q", b.PaymentStatus, b.PaymentReference)
	}
	if _, err := env.booking.Pay(as(tenant), b.ID); !errors.Is(err, booking.ErrIllegalTransition) {
		t.Fatalf("second payment: expected ErrIllegalTransition, got %v", err)
	}

	env.clock.T = day(10)
	if b, err = env.booking.CheckIn(as(tenant), b.ID); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if b.DepositStatus != model.DepositStatusHeld {
		t.Fatalf("deposit = %s, want held", b.DepositStatus)
	}
	if b, err = env.booking.RecordCheckout(as(owner), b.ID, "all good"); err != nil {
		t.Fatalf("RecordCheckout: %v", err)
	}

	env.clock.T = day(13)
	if b, err = env.booking.Complete(as(tenant), b.ID, 0); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if b.Status != model.BookingStatusCompleted || b.DepositStatus != model.DepositStatusReleased {
		t.Fatalf("unexpected final state %s/%s", b.Status, b.DepositStatus)
	}

	var kinds []string
	for _, op := range env.gateway.OpsFor(b.ID) {
		kinds = append(kinds, op.Kind)
	}
	want := []string{"deposit_authorize", "charge", "deposit_hold", "deposit_release"}
	if len(kinds) != len(want) {
		t.Fatalf("gateway ops = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("gateway ops = %v, want %v", kinds, want)
		}
	}

	wantNotes := []string{">requested", "requested>confirmed", "confirmed>in_progress", "in_progress>completed"}
	got := env.notes.statuses()
	if len(got) != len(wantNotes) {
		t.Fatalf("notifications = %v, want %v", got, wantNotes)
	}
	for i := range wantNotes {
		if got[i] != wantNotes[i] {
			t.Fatalf("notifications = %v, want %v", got, wantNotes)
		}
	}

	history, err := env.booking.History(as(owner), b.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	// создание, подтверждение, 2 шага оплаты, заезд, выезд, завершение
	if len(history) != 7 {
		t.Fatalf("history has %d events, want 7", len(history))
	}
}

func TestBookingService_ModerateCancellationRefund(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	tenant := newTenant()
	space := env.seedSpace(t, owner, nil)

	b, _, err := env.booking.RequestBooking(as(tenant), space.ID, booking.Request{Start: day(11), End: day(13)})
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}
	if _, err := env.booking.Confirm(as(owner), b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := env.booking.Pay(as(tenant), b.ID); err != nil {
		t.Fatalf("Pay: %v", err)
	}

	env.clock.T = day(3)
	cancelled, refund, err := env.booking.Cancel(as(tenant), b.ID, "plans changed")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if refund == nil || refund.Amount != 150 || refund.Percent != 50 {
		t.Fatalf("unexpected refund %+v", refund)
	}
	if cancelled.PaymentStatus != model.PaymentStatusRefunded || cancelled.RefundAmount != 150 {
		t.Fatalf("unexpected payment %s/%d", cancelled.PaymentStatus, cancelled.RefundAmount)
	}
	ops := env.gateway.OpsFor(b.ID)
	if last := ops[len(ops)-1]; last.Kind != "refund" || last.Amount != 150 {
		t.Fatalf("unexpected last gateway op %+v", last)
	}

	// даты освободились
	if _, err := env.booking.CheckAvailability(context.Background(), space.ID, day(11), day(13)); err != nil {
		t.Fatalf("dates still blocked: %v", err)
	}
}

// chargeHook вызывает onCharge посреди списания, до ответа шлюза.
type chargeHook struct {
	*payment.FakeGateway
	onCharge func()
}

func (g *chargeHook) Charge(ctx context.Context, id uuid.UUID, amount int64) (string, error) {
	if g.onCharge != nil {
		g.onCharge()
	}
	return g.FakeGateway.Charge(ctx, id, amount)
}

func TestBookingService_CancelDuringChargeIsRefused(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	tenant := newTenant()
	admin := newAdmin()
	space := env.seedSpace(t, owner, func(s *model.Space) { s.InstantBooking = true })

	gateway := &chargeHook{FakeGateway: env.gateway}
	svc := NewBookingService(booking.NewEngine(env.clock, time.UTC), env.spaces, env.bookings, env.events,
		lock.NewLocalLocker(), gateway, env.notes)

	b, _, err := svc.RequestBooking(as(tenant), space.ID, booking.Request{Start: day(10), End: day(12)})
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}

	var cancelErr, overrideErr error
	gateway.onCharge = func() {
		_, _, cancelErr = svc.Cancel(as(tenant), b.ID, "changed my mind")
		_, overrideErr = svc.AdminOverride(as(admin), b.ID, model.BookingStatusCancelled, "moderation")
	}
	paid, err := svc.Pay(as(tenant), b.ID)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if !errors.Is(cancelErr, booking.ErrIllegalTransition) {
		t.Fatalf("cancel during charge: expected ErrIllegalTransition, got %v", cancelErr)
	}
	if !errors.Is(overrideErr, booking.ErrIllegalTransition) {
		t.Fatalf("override during charge: expected ErrIllegalTransition, got %v", overrideErr)
	}
	if paid.Status != model.BookingStatusConfirmed || paid.PaymentStatus != model.PaymentStatusPaid {
		t.Fatalf("unexpected state %s/%s", paid.Status, paid.PaymentStatus)
	}

	// после списания отмена проходит и деньги возвращаются по политике
	gateway.onCharge = nil
	cancelled, refund, err := svc.Cancel(as(tenant), b.ID, "changed my mind")
	if err != nil {
		t.Fatalf("Cancel after pay: %v", err)
	}
	if cancelled.PaymentStatus != model.PaymentStatusRefunded || refund == nil || refund.Amount != 150 {
		t.Fatalf("unexpected refund %s/%+v", cancelled.PaymentStatus, refund)
	}
}

func TestBookingService_DeclinedPaymentCanBeRetried(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	tenant := newTenant()
	space := env.seedSpace(t, owner, func(s *model.Space) { s.InstantBooking = true })

	b, _, err := env.booking.RequestBooking(as(tenant), space.ID, booking.Request{Start: day(10), End: day(11)})
	if err != nil {
		t.Fatalf("RequestBooking: %v", err)
	}
	if b.Status != model.BookingStatusConfirmed {
		t.Fatalf("instant booking status = %s", b.Status)
	}

	env.gateway.Decline(b.ID, true)
	failed, err := env.booking.Pay(as(tenant), b.ID)
	if !errors.Is(err, payment.ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	if failed.PaymentStatus != model.PaymentStatusFailed {
		t.Fatalf("payment = %s, want failed", failed.PaymentStatus)
	}

	env.gateway.Decline(b.ID, false)
	paid, err := env.booking.Pay(as(tenant), b.ID)
	if err != nil || paid.PaymentStatus != model.PaymentStatusPaid {
		t.Fatalf("retry: %+v, %v", paid, err)
	}
}

func TestBookingService_CompleteDue(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	tenant := newTenant()
	space := env.seedSpace(t, owner, func(s *model.Space) { s.InstantBooking = true })

	started := func(from, to int, checkout bool) *model.Booking {
		env.clock.T = start
		b, _, err := env.booking.RequestBooking(as(tenant), space.ID, booking.Request{Start: day(from), End: day(to)})
		if err != nil {
			t.Fatalf("RequestBooking: %v", err)
		}
		if _, err := env.booking.Pay(as(tenant), b.ID); err != nil {
			t.Fatalf("Pay: %v", err)
		}
		env.clock.T = day(from)
		if _, err := env.booking.CheckIn(as(tenant), b.ID); err != nil {
			t.Fatalf("CheckIn: %v", err)
		}
		if checkout {
			if _, err := env.booking.RecordCheckout(as(tenant), b.ID, ""); err != nil {
				t.Fatalf("RecordCheckout: %v", err)
			}
		}
		return b
	}

	due := started(5, 6, true)
	noCheckout := started(8, 9, false)
	notOver := started(20, 25, true)

	env.clock.T = day(21)
	n, err := env.booking.CompleteDue(context.Background())
	if err != nil {
		t.Fatalf("CompleteDue: %v", err)
	}
	if n != 1 {
		t.Fatalf("completed %d, want 1", n)
	}

	ctx := as(newAdmin())
	for id, want := range map[uuid.UUID]model.BookingStatus{
		due.ID:        model.BookingStatusCompleted,
		noCheckout.ID: model.BookingStatusInProgress,
		notOver.ID:    model.BookingStatusInProgress,
	} {
		b, err := env.booking.GetBooking(ctx, id)
		if err != nil {
			t.Fatalf("GetBooking: %v", err)
		}
		if b.Status != want {
			t.Fatalf("booking %s status = %s, want %s", id, b.Status, want)
		}
	}
}

func TestBookingService_AdminOverrideAndDashboards(t *testing.T) {
	env := newEnv(t)
	owner := newLandlord()
	tenant := newTenant()
	space := env.seedSpace(t, owner, nil)

	for _, d := range []int{5, 10, 15} {
		if _, _, err := env.booking.RequestBooking(as(tenant), space.ID, booking.Request{Start: day(d), End: day(d + 1)}); err != nil {
			t.Fatalf("RequestBooking: %v", err)
		}
	}

	page, err := env.booking.ListForLandlord(as(owner), "", 1, 2)
	if err != nil {
		t.Fatalf("ListForLandlord: %v", err)
	}
	if page.Total != 3 || len(page.Items) != 2 || !page.HasNext {
		t.Fatalf("unexpected page %+v", page)
	}
	mine, err := env.booking.ListForTenant(as(tenant), model.BookingStatusRequested, 1, 10)
	if err != nil || mine.Total != 3 {
		t.Fatalf("ListForTenant: %+v, %v", mine, err)
	}

	target := page.Items[0].ID
	if _, err := env.booking.AdminOverride(as(owner), target, model.BookingStatusCancelled, ""); !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("landlord override: expected ErrUnauthorized, got %v", err)
	}
	overridden, err := env.booking.AdminOverride(as(newAdmin()), target, model.BookingStatusRejected, "spam")
	if err != nil {
		t.Fatalf("AdminOverride: %v", err)
	}
	if overridden.Status != model.BookingStatusRejected {
		t.Fatalf("status = %s", overridden.Status)
	}

	if _, err := env.booking.GetBooking(as(newTenant()), target); !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("stranger: expected ErrUnauthorized, got %v", err)
	}

	window, _ := calendar.NewDateRange(day(1), day(31))
	occupied, err := env.booking.Occupancy(context.Background(), space.ID, window)
	if err != nil {
		t.Fatalf("Occupancy: %v", err)
	}
	if len(occupied) != 2 {
		t.Fatalf("occupied = %v, want 2 ranges", occupied)
	}
}
