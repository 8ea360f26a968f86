package payment

import (
	"context"
	"fmt"

	"github.com/spacefindr/core/internal/booking"
)

// ApplyMoney выполняет денежные побочные эффекты перехода, кроме списания
// (списание идёт отдельным шагом оплаты). Вызывается после фиксации перехода.
func ApplyMoney(ctx context.Context, gw Gateway, t *booking.Transition) error {
	m := t.Money
	id := t.BookingID

	if m.Refund > 0 {
		if _, err := gw.Refund(ctx, id, m.Refund); err != nil {
			return fmt.Errorf("refund %d for %s: %w", m.Refund, id, err)
		}
	}

	var err error
	switch m.Deposit {
	case booking.DepositAuthorize:
		_, err = gw.AuthorizeDeposit(ctx, id, m.DepositAmount)
	case booking.DepositHold:
		_, err = gw.HoldDeposit(ctx, id, m.DepositAmount)
	case booking.DepositRelease:
		_, err = gw.ReleaseDeposit(ctx, id, m.DepositAmount)
	case booking.DepositForfeit:
		if _, err = gw.ForfeitDeposit(ctx, id, m.Forfeit); err == nil && m.DepositAmount > m.Forfeit {
			_, err = gw.ReleaseDeposit(ctx, id, m.DepositAmount-m.Forfeit)
		}
	}
	if err != nil {
		return fmt.Errorf("deposit %s for %s: %w", m.Deposit, id, err)
	}
	return nil
}
