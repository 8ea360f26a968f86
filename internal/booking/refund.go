package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spacefindr/core/internal/model"
)

// Refund: результат применения политики отмены.
// База возврата: только аренда; комиссия площадки не возвращается.
type Refund struct {
	Policy  model.CancellationPolicy
	Percent int
	Amount  int64
}

const (
	flexibleNotice = 24 * time.Hour
	moderateNotice = 7 * 24 * time.Hour
)

// RefundFor считает возврат за отмену подтверждённого бронирования.
// startsAt — начало первого дня аренды в часовом поясе площадки.
//   - flexible: 100% при отмене не позднее чем за 24 часа;
//   - moderate: 50% при отмене не позднее чем за 7 дней;
//   - strict: 0%.
func RefundFor(policy model.CancellationPolicy, rentAmount int64, startsAt, now time.Time) Refund {
	notice := startsAt.Sub(now)

	percent := 0
	switch policy {
	case model.CancellationFlexible:
		if notice >= flexibleNotice {
			percent = 100
		}
	case model.CancellationModerate:
		if notice >= moderateNotice {
			percent = 50
		}
	case model.CancellationStrict:
		percent = 0
	}

	amount := percentOf(rentAmount, decimal.NewFromInt(int64(percent)).Div(decimal.NewFromInt(100)))
	return Refund{Policy: policy, Percent: percent, Amount: amount}
}
