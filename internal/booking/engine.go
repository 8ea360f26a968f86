package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
)

// Окно заезда открывается за сутки до начала аренды.
const checkInWindow = 24 * time.Hour

// Engine: движок доступности, цены и жизненного цикла бронирования.
// Ничего не сохраняет и не логирует: каждая операция либо возвращает
// проверенный Transition, либо типизированную ошибку.
type Engine struct {
	clock Clock
	loc   *time.Location
}

// NewEngine создаёт движок. loc — часовой пояс, в котором считаются
// "сегодня" и границы дней аренды.
func NewEngine(clock Clock, loc *time.Location) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{clock: clock, loc: loc}
}

func (e *Engine) Now() time.Time { return e.clock.Now() }

// Today: текущая календарная дата в часовом поясе площадки.
func (e *Engine) Today() time.Time {
	return calendar.DateOf(e.clock.Now().In(e.loc))
}

// dayStart: начало календарного дня day в часовом поясе площадки.
func (e *Engine) dayStart(day time.Time) time.Time {
	y, m, d := day.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

func (e *Engine) CheckAvailability(space *model.Space, start, end time.Time, existing []model.Booking) (AvailabilityResult, error) {
	return CheckAvailability(space, start, end, existing, e.Today())
}

// Quote считает цену без проверки занятости — для страницы объявления.
func (e *Engine) Quote(space *model.Space, start, end time.Time) (PriceBreakdown, error) {
	if space == nil || !space.IsActive {
		return PriceBreakdown{}, ErrSpaceUnavailable
	}
	r, err := calendar.NewDateRange(start, end)
	if err != nil {
		return PriceBreakdown{}, ErrInvalidDateRange
	}
	return ComputePrice(space, r), nil
}

// Request: запрос арендатора на бронирование.
type Request struct {
	Start   time.Time
	End     time.Time
	Message string
}

// Request проверяет доступность, считает цену и собирает новое бронирование.
// При мгновенном бронировании оно сразу подтверждается.
func (e *Engine) Request(actor Actor, space *model.Space, req Request, existing []model.Booking) (*Transition, PriceBreakdown, error) {
	if actor.ID == uuid.Nil || actor.IsSystem() || actor.IsAdmin() {
		return nil, PriceBreakdown{}, unauthorized("only tenants can request bookings")
	}
	if space != nil && space.OwnerID == actor.ID {
		return nil, PriceBreakdown{}, unauthorized("owner cannot book own space")
	}

	avail, err := e.CheckAvailability(space, req.Start, req.End, existing)
	if err != nil {
		return nil, PriceBreakdown{}, err
	}
	price := ComputePrice(space, avail.Range)
	now := e.Now()

	b := model.Booking{
		ID:            uuid.New(),
		SpaceID:       space.ID,
		TenantID:      actor.ID,
		LandlordID:    space.OwnerID,
		SpaceName:     space.Title,
		SpaceImage:    space.ImageURL,
		PricePerDay:   space.PricePerDay,
		StartDate:     avail.Range.Start,
		EndDate:       avail.Range.End,
		TotalDays:     avail.Days,
		RentAmount:    price.RentAmount,
		ServiceAmount: price.ServiceAmount,
		DepositAmount: price.DepositAmount,
		TotalPrice:    price.TotalPrice,
		Status:        model.BookingStatusRequested,
		PaymentStatus: model.PaymentStatusPending,
		DepositStatus: model.DepositStatusNone,
		Message:       req.Message,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	t := &Transition{
		BookingID: b.ID,
		To:        model.BookingStatusRequested,
		Actor:     actor,
		At:        now,
		Next:      b,
	}
	if space.InstantBooking {
		t.confirm(now)
	}
	return t, price, nil
}

// begin готовит переход поверх копии бронирования.
func (e *Engine) begin(actor Actor, b *model.Booking, to model.BookingStatus) *Transition {
	now := e.Now()
	next := *b
	next.Space = nil
	next.Version = b.Version + 1
	next.UpdatedAt = now
	return &Transition{
		BookingID: b.ID,
		From:      b.Status,
		To:        to,
		Actor:     actor,
		At:        now,
		Next:      next,
		Columns:   []string{"version", "updated_at"},
	}
}

func (t *Transition) confirm(now time.Time) {
	t.To = model.BookingStatusConfirmed
	t.setStatus(model.BookingStatusConfirmed)
	t.Next.ConfirmedAt = &now
	t.touch("confirmed_at")
	if t.Next.DepositAmount > 0 {
		t.setDeposit(model.DepositStatusAuthorized, DepositAuthorize)
	}
}

func isTenant(a Actor, b *model.Booking) bool   { return a.ID != uuid.Nil && a.ID == b.TenantID }
func isLandlord(a Actor, b *model.Booking) bool { return a.ID != uuid.Nil && a.ID == b.LandlordID }

// Confirm: арендодатель (или администратор) принимает запрос.
func (e *Engine) Confirm(actor Actor, b *model.Booking) (*Transition, error) {
	to := model.BookingStatusConfirmed
	if b.Status != model.BookingStatusRequested {
		return nil, illegal(b.Status, to, "only requested bookings can be confirmed")
	}
	if !isLandlord(actor, b) && !actor.IsAdmin() {
		return nil, unauthorized("only the landlord can confirm booking %s", b.ID)
	}
	t := e.begin(actor, b, to)
	t.confirm(t.At)
	return t, nil
}

// Reject — арендодатель (или администратор) отклоняет запрос. Денег не касается.
func (e *Engine) Reject(actor Actor, b *model.Booking, reason string) (*Transition, error) {
	to := model.BookingStatusRejected
	if b.Status != model.BookingStatusRequested {
		return nil, illegal(b.Status, to, "only requested bookings can be rejected")
	}
	if !isLandlord(actor, b) && !actor.IsAdmin() {
		return nil, unauthorized("only the landlord can reject booking %s", b.ID)
	}
	t := e.begin(actor, b, to)
	t.Reason = reason
	t.setStatus(to)
	t.Next.StatusReason = reason
	t.touch("status_reason")
	return t, nil
}

// Пока шлюз обрабатывает списание (payment=processing), бронирование
// не отменяется ни арендатором, ни администратором.
const paymentInFlight = "payment is being processed"

// Cancel: отмена арендатором. Запрос отменяется всегда, подтверждённое
// бронирование только до начала аренды и с возвратом по политике помещения.
func (e *Engine) Cancel(actor Actor, b *model.Booking, policy model.CancellationPolicy, reason string) (*Transition, error) {
	to := model.BookingStatusCancelled
	startsAt := e.dayStart(b.StartDate)
	now := e.Now()

	switch b.Status {
	case model.BookingStatusRequested:
	case model.BookingStatusConfirmed:
		if !now.Before(startsAt) {
			return nil, illegal(b.Status, to, "rental period has already started")
		}
	default:
		return nil, illegal(b.Status, to, "only requested or confirmed bookings can be cancelled by the tenant")
	}
	if b.PaymentStatus == model.PaymentStatusProcessing {
		return nil, illegal(b.Status, to, paymentInFlight)
	}
	if !isTenant(actor, b) {
		return nil, unauthorized("only the tenant can cancel booking %s", b.ID)
	}

	t := e.begin(actor, b, to)
	t.Reason = reason
	t.setStatus(to)
	t.Next.StatusReason = reason
	t.Next.CancelledAt = &t.At
	t.touch("status_reason", "cancelled_at")

	if b.Status == model.BookingStatusConfirmed {
		refund := RefundFor(policy, b.RentAmount, startsAt, now)
		t.Refund = &refund
		if b.PaymentStatus == model.PaymentStatusPaid && refund.Amount > 0 {
			t.Next.PaymentStatus = model.PaymentStatusRefunded
			t.Next.RefundAmount = refund.Amount
			t.Money.Refund = refund.Amount
			t.touch("payment_status", "refund_amount")
		}
	}
	t.releaseDeposit()
	return t, nil
}

// StartPayment переводит оплату в processing перед обращением к шлюзу.
// Версия строки защищает от двойного списания при параллельных запросах.
func (e *Engine) StartPayment(actor Actor, b *model.Booking) (*Transition, error) {
	if b.Status != model.BookingStatusConfirmed {
		return nil, illegal(b.Status, b.Status, "only confirmed bookings can be paid")
	}
	if b.PaymentStatus != model.PaymentStatusPending && b.PaymentStatus != model.PaymentStatusFailed {
		return nil, illegal(b.Status, b.Status, "payment is already "+string(b.PaymentStatus))
	}
	if !isTenant(actor, b) {
		return nil, unauthorized("only the tenant can pay booking %s", b.ID)
	}
	t := e.begin(actor, b, b.Status)
	t.Next.PaymentStatus = model.PaymentStatusProcessing
	t.Money.Charge = b.TotalPrice
	t.touch("payment_status")
	return t, nil
}

// SettlePayment фиксирует ответ шлюза: paid или failed.
func (e *Engine) SettlePayment(actor Actor, b *model.Booking, succeeded bool, reference string) (*Transition, error) {
	if b.PaymentStatus != model.PaymentStatusProcessing {
		return nil, illegal(b.Status, b.Status, "no payment in progress")
	}
	t := e.begin(actor, b, b.Status)
	if succeeded {
		t.Next.PaymentStatus = model.PaymentStatusPaid
		t.Next.PaidAt = &t.At
		t.touch("payment_status", "paid_at")
	} else {
		t.Next.PaymentStatus = model.PaymentStatusFailed
		t.touch("payment_status")
	}
	if reference != "" {
		t.SetPaymentReference(reference)
	}
	return t, nil
}

// CheckIn начинает аренду: нужна оплата и открытое окно заезда.
// Авторизованный залог переходит в удержание.
func (e *Engine) CheckIn(actor Actor, b *model.Booking) (*Transition, error) {
	to := model.BookingStatusInProgress
	if b.Status != model.BookingStatusConfirmed {
		return nil, illegal(b.Status, to, "only confirmed bookings can start")
	}
	if b.PaymentStatus != model.PaymentStatusPaid {
		return nil, illegal(b.Status, to, "payment is not completed")
	}
	if e.Now().Before(e.dayStart(b.StartDate).Add(-checkInWindow)) {
		return nil, illegal(b.Status, to, "check-in window is not open yet")
	}
	if !isTenant(actor, b) && !isLandlord(actor, b) && !actor.IsAdmin() && !actor.IsSystem() {
		return nil, unauthorized("actor is not a party of booking %s", b.ID)
	}

	t := e.begin(actor, b, to)
	t.setStatus(to)
	t.Next.CheckedInAt = &t.At
	t.touch("checked_in_at")
	if b.DepositStatus == model.DepositStatusAuthorized {
		t.setDeposit(model.DepositStatusHeld, DepositHold)
	}
	return t, nil
}

// RecordCheckout сохраняет протокол выезда. Статус не меняется.
func (e *Engine) RecordCheckout(actor Actor, b *model.Booking, note string) (*Transition, error) {
	if b.Status != model.BookingStatusInProgress {
		return nil, illegal(b.Status, b.Status, "check-out can only be recorded during the rental")
	}
	if b.CheckedOutAt != nil {
		return nil, illegal(b.Status, b.Status, "check-out already recorded")
	}
	if !isTenant(actor, b) && !isLandlord(actor, b) && !actor.IsAdmin() {
		return nil, unauthorized("actor is not a party of booking %s", b.ID)
	}
	t := e.begin(actor, b, b.Status)
	t.Next.CheckedOutAt = &t.At
	t.Next.CheckoutNote = note
	t.touch("checked_out_at", "checkout_note")
	return t, nil
}

// Complete завершает аренду. Арендодатель и администратор могут завершить
// в любой момент, арендатор и фоновые задачи — только после протокола выезда
// и окончания срока. damageClaim > 0 (только администратор) удерживает
// часть залога, остальное возвращается.
func (e *Engine) Complete(actor Actor, b *model.Booking, damageClaim int64) (*Transition, error) {
	to := model.BookingStatusCompleted
	if b.Status != model.BookingStatusInProgress {
		return nil, illegal(b.Status, to, "only bookings in progress can be completed")
	}

	switch {
	case isLandlord(actor, b) || actor.IsAdmin():
	case isTenant(actor, b) || actor.IsSystem():
		if b.CheckedOutAt == nil || !e.Today().After(calendar.DateOf(b.EndDate.UTC())) {
			return nil, illegal(b.Status, to, "check-out not recorded or rental period not over")
		}
	default:
		return nil, unauthorized("actor is not a party of booking %s", b.ID)
	}

	if damageClaim < 0 {
		return nil, illegal(b.Status, to, "negative damage claim")
	}
	if damageClaim > 0 {
		if !actor.IsAdmin() {
			return nil, unauthorized("only an admin can decide on a damage claim")
		}
		if b.DepositStatus != model.DepositStatusHeld || damageClaim > b.DepositAmount {
			return nil, illegal(b.Status, to, "damage claim exceeds the held deposit")
		}
	}

	t := e.begin(actor, b, to)
	t.setStatus(to)
	t.Next.CompletedAt = &t.At
	t.touch("completed_at")
	if b.DepositStatus == model.DepositStatusHeld {
		if damageClaim > 0 {
			t.setDeposit(model.DepositStatusForfeited, DepositForfeit)
			t.Money.Forfeit = damageClaim
			t.Next.DepositForfeitedAmount = damageClaim
			t.touch("deposit_forfeited_amount")
		} else {
			t.setDeposit(model.DepositStatusReleased, DepositRelease)
		}
	}
	return t, nil
}

// AdminOverride: модерация: любой незавершённый статус -> cancelled/rejected.
// Оплаченная сумма возвращается полностью, залог освобождается.
func (e *Engine) AdminOverride(actor Actor, b *model.Booking, to model.BookingStatus, reason string) (*Transition, error) {
	if to != model.BookingStatusCancelled && to != model.BookingStatusRejected {
		return nil, illegal(b.Status, to, "override can only cancel or reject")
	}
	if !CanTransition(b.Status, to) {
		return nil, illegal(b.Status, to, "")
	}
	if b.PaymentStatus == model.PaymentStatusProcessing {
		return nil, illegal(b.Status, to, paymentInFlight)
	}
	if !actor.IsAdmin() {
		return nil, unauthorized("override requires admin role")
	}

	t := e.begin(actor, b, to)
	t.Reason = reason
	t.setStatus(to)
	t.Next.StatusReason = reason
	t.touch("status_reason")
	if to == model.BookingStatusCancelled {
		t.Next.CancelledAt = &t.At
		t.touch("cancelled_at")
	}
	if b.PaymentStatus == model.PaymentStatusPaid {
		t.Next.PaymentStatus = model.PaymentStatusRefunded
		t.Next.RefundAmount = b.TotalPrice
		t.Money.Refund = b.TotalPrice
		t.touch("payment_status", "refund_amount")
	}
	t.releaseDeposit()
	return t, nil
}
