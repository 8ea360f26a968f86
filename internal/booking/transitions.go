package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/model"
)

// Граф статусов. Переходы confirmed/in_progress -> cancelled/rejected
// открыты только администратору (модерация).
var allowedTransitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingStatusRequested:  {model.BookingStatusConfirmed, model.BookingStatusRejected, model.BookingStatusCancelled},
	model.BookingStatusConfirmed:  {model.BookingStatusInProgress, model.BookingStatusCancelled, model.BookingStatusRejected},
	model.BookingStatusInProgress: {model.BookingStatusCompleted, model.BookingStatusCancelled, model.BookingStatusRejected},
	model.BookingStatusCompleted:  {},
	model.BookingStatusRejected:   {},
	model.BookingStatusCancelled:  {},
}

// AllowedTransitions возвращает статусы, в которые можно перейти из from.
func AllowedTransitions(from model.BookingStatus) []model.BookingStatus {
	allowed := allowedTransitions[from]
	out := make([]model.BookingStatus, len(allowed))
	copy(out, allowed)
	return out
}

// CanTransition: есть ли ребро from -> to в графе статусов.
func CanTransition(from, to model.BookingStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DepositAction: что сделать с залогом во внешнем платёжном шлюзе.
type DepositAction string

const (
	DepositNoop      DepositAction = ""
	DepositAuthorize DepositAction = "authorize"
	DepositHold      DepositAction = "hold"
	DepositRelease   DepositAction = "release"
	DepositForfeit   DepositAction = "forfeit"
)

// MoneyMovement — денежные побочные эффекты перехода.
type MoneyMovement struct {
	Charge        int64
	Refund        int64
	Deposit       DepositAction
	DepositAmount int64
	// Удерживаемая часть залога при DepositForfeit.
	Forfeit int64
}

func (m MoneyMovement) IsZero() bool {
	return m.Charge == 0 && m.Refund == 0 && m.Deposit == DepositNoop
}

// Transition: полностью проверенное изменение бронирования.
// Next: состояние после перехода, Columns, изменённые колонки.
// Пока Transition не сохранён, исходное бронирование не тронуто.
type Transition struct {
	BookingID uuid.UUID
	From      model.BookingStatus
	To        model.BookingStatus
	Actor     Actor
	At        time.Time
	Reason    string

	Next    model.Booking
	Columns []string

	Money  MoneyMovement
	Refund *Refund
}

// StatusChanged — false для обновлений без смены статуса (оплата, выезд).
func (t *Transition) StatusChanged() bool { return t.From != t.To }

// IsCreate: переход из начального состояния, бронирование ещё не сохранено.
func (t *Transition) IsCreate() bool { return t.From == "" }

// ExpectedVersion: версия строки, поверх которой применяется переход.
func (t *Transition) ExpectedVersion() int { return t.Next.Version - 1 }

// SetPaymentReference записывает идентификатор операции шлюза.
func (t *Transition) SetPaymentReference(ref string) {
	t.Next.PaymentReference = ref
	t.touch("payment_reference")
}

func (t *Transition) touch(cols ...string) {
	for _, c := range cols {
		if !t.has(c) {
			t.Columns = append(t.Columns, c)
		}
	}
}

func (t *Transition) has(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

func (t *Transition) setStatus(s model.BookingStatus) {
	t.Next.Status = s
	t.touch("status")
}

func (t *Transition) setDeposit(s model.DepositStatus, action DepositAction) {
	t.Next.DepositStatus = s
	t.Money.Deposit = action
	t.Money.DepositAmount = t.Next.DepositAmount
	t.touch("deposit_status")
}

// releaseDeposit освобождает авторизованный или удерживаемый залог.
func (t *Transition) releaseDeposit() {
	switch t.Next.DepositStatus {
	case model.DepositStatusAuthorized, model.DepositStatusHeld:
		t.setDeposit(model.DepositStatusReleased, DepositRelease)
	}
}
