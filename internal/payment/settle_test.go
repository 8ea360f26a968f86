package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/booking"
)

func TestApplyMoney_ForfeitReleasesRemainder(t *testing.T) {
	gw := NewFakeGateway()
	id := uuid.New()
	tr := &booking.Transition{
		BookingID: id,
		Money: booking.MoneyMovement{
			Deposit:       booking.DepositForfeit,
			DepositAmount: 1000,
			Forfeit:       300,
		},
	}
	if err := ApplyMoney(context.Background(), gw, tr); err != nil {
		t.Fatalf("ApplyMoney: %v", err)
	}

	ops := gw.OpsFor(id)
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %+v", ops)
	}
	if ops[0].Kind != "deposit_forfeit" || ops[0].Amount != 300 {
		t.Fatalf("unexpected forfeit op %+v", ops[0])
	}
	if ops[1].Kind != "deposit_release" || ops[1].Amount != 700 {
		t.Fatalf("unexpected release op %+v", ops[1])
	}
}

func TestApplyMoney_RefundThenRelease(t *testing.T) {
	gw := NewFakeGateway()
	id := uuid.New()
	tr := &booking.Transition{
		BookingID: id,
		Money:     booking.MoneyMovement{Refund: 150, Deposit: booking.DepositRelease, DepositAmount: 500},
	}
	if err := ApplyMoney(context.Background(), gw, tr); err != nil {
		t.Fatalf("ApplyMoney: %v", err)
	}
	ops := gw.OpsFor(id)
	if len(ops) != 2 || ops[0].Kind != "refund" || ops[0].Amount != 150 || ops[1].Kind != "deposit_release" {
		t.Fatalf("unexpected ops %+v", ops)
	}
}

func TestApplyMoney_NoopDoesNothing(t *testing.T) {
	gw := NewFakeGateway()
	if err := ApplyMoney(context.Background(), gw, &booking.Transition{BookingID: uuid.New()}); err != nil {
		t.Fatalf("ApplyMoney: %v", err)
	}
	if len(gw.Ops()) != 0 {
		t.Fatalf("unexpected ops %+v", gw.Ops())
	}
}

func TestFakeGateway_Decline(t *testing.T) {
	gw := NewFakeGateway()
	id := uuid.New()
	gw.Decline(id, true)
	if _, err := gw.Charge(context.Background(), id, 100); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
	gw.Decline(id, false)
	ref, err := gw.Charge(context.Background(), id, 100)
	if err != nil || ref == "" {
		t.Fatalf("Charge: %q, %v", ref, err)
	}
}

func TestSimulatedGateway(t *testing.T) {
	ref, err := SimulatedGateway{}.Charge(context.Background(), uuid.New(), 330)
	if err != nil || ref == "" {
		t.Fatalf("Charge: %q, %v", ref, err)
	}
	if _, err := (SimulatedGateway{}).Refund(context.Background(), uuid.New(), -1); err == nil {
		t.Fatalf("expected error for negative amount")
	}
}
