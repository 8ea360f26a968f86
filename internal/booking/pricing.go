package booking

import (
	"github.com/shopspring/decimal"

	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
)

const (
	daysPerWeek  = 7
	daysPerMonth = 28
)

// Комиссия площадки с арендатора.
var ServiceFeeRate = decimal.RequireFromString("0.10")

// PriceBreakdown: денежные условия бронирования, всё в центах.
// Залог держится отдельно и в TotalPrice не входит.
type PriceBreakdown struct {
	Days          int
	Months        int
	Weeks         int
	RemainderDays int

	RentAmount    int64
	ServiceAmount int64
	DepositAmount int64
	TotalPrice    int64
}

// ComputePrice считает стоимость аренды space на диапазон r.
// Берётся самая крупная доступная единица (месяц = 28 дней, затем неделя),
// остаток дней по дневной ставке. Детерминирована.
func ComputePrice(space *model.Space, r calendar.DateRange) PriceBreakdown {
	days := r.Days()
	pb := PriceBreakdown{Days: days}

	switch {
	case space.PricePerMonth != nil && days >= daysPerMonth:
		pb.Months = days / daysPerMonth
		pb.RemainderDays = days % daysPerMonth
		monthly := *space.PricePerMonth
		pb.RentAmount = int64(pb.Months)*monthly + int64(pb.RemainderDays)*space.PricePerDay
	case space.PricePerWeek != nil && days >= daysPerWeek:
		pb.Weeks = days / daysPerWeek
		pb.RemainderDays = days % daysPerWeek
		weekly := *space.PricePerWeek
		pb.RentAmount = int64(pb.Weeks)*weekly + int64(pb.RemainderDays)*space.PricePerDay
	default:
		pb.RemainderDays = days
		pb.RentAmount = int64(days) * space.PricePerDay
	}

	pb.ServiceAmount = percentOf(pb.RentAmount, ServiceFeeRate)
	pb.DepositAmount = space.EffectiveDeposit()
	pb.TotalPrice = pb.RentAmount + pb.ServiceAmount
	return pb
}

// percentOf — amount*rate с округлением до цента, половина вверх.
// Суммы неотрицательные, поэтому half-away-from-zero decimal.Round совпадает с half-up.
func percentOf(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}
