package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrDeclined — шлюз отказал в операции. Бронирование переводится в payment=failed.
var ErrDeclined = errors.New("payment declined")

// Gateway: внешний платёжный провайдер. Суммы в центах.
// Каждая операция возвращает идентификатор для сверки.
type Gateway interface {
	Charge(ctx context.Context, bookingID uuid.UUID, amount int64) (string, error)
	Refund(ctx context.Context, bookingID uuid.UUID, amount int64) (string, error)
	AuthorizeDeposit(ctx context.Context, bookingID uuid.UUID, amount int64) (string, error)
	HoldDeposit(ctx context.Context, bookingID uuid.UUID, amount int64) (string, error)
	ReleaseDeposit(ctx context.Context, bookingID uuid.UUID, amount int64) (string, error)
	ForfeitDeposit(ctx context.Context, bookingID uuid.UUID, amount int64) (string, error)
}

// Op: запись об операции шлюза.
type Op struct {
	Kind      string
	BookingID uuid.UUID
	Amount    int64
	Reference string
}

// SimulatedGateway всегда подтверждает операции. Используется, пока
// платёжный провайдер не подключён.
type SimulatedGateway struct{}

func (SimulatedGateway) Charge(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return simulated("charge", id, amount)
}

func (SimulatedGateway) Refund(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return simulated("refund", id, amount)
}

func (SimulatedGateway) AuthorizeDeposit(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return simulated("deposit_authorize", id, amount)
}

func (SimulatedGateway) HoldDeposit(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return simulated("deposit_hold", id, amount)
}

func (SimulatedGateway) ReleaseDeposit(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return simulated("deposit_release", id, amount)
}

func (SimulatedGateway) ForfeitDeposit(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return simulated("deposit_forfeit", id, amount)
}

func simulated(kind string, id uuid.UUID, amount int64) (string, error) {
	if amount < 0 {
		return "", fmt.Errorf("%s %s: negative amount %d", kind, id, amount)
	}
	return "sim_" + kind + "_" + uuid.NewString(), nil
}

// FakeGateway — детерминированный шлюз для тестов: записывает операции
// и отказывает в списании для бронирований из Decline.
type FakeGateway struct {
	mu      sync.Mutex
	ops     []Op
	decline map[uuid.UUID]bool
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{decline: make(map[uuid.UUID]bool)}
}

// Decline заставляет следующие списания по бронированию завершаться отказом.
func (g *FakeGateway) Decline(id uuid.UUID, decline bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.decline[id] = decline
}

func (g *FakeGateway) Ops() []Op {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Op, len(g.ops))
	copy(out, g.ops)
	return out
}

// OpsFor: операции по одному бронированию в порядке вызова.
func (g *FakeGateway) OpsFor(id uuid.UUID) []Op {
	var out []Op
	for _, op := range g.Ops() {
		if op.BookingID == id {
			out = append(out, op)
		}
	}
	return out
}

func (g *FakeGateway) record(kind string, id uuid.UUID, amount int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if kind == "charge" && g.decline[id] {
		return "", ErrDeclined
	}
	ref := fmt.Sprintf("fake_%s_%d", kind, len(g.ops)+1)
	g.ops = append(g.ops, Op{Kind: kind, BookingID: id, Amount: amount, Reference: ref})
	return ref, nil
}

func (g *FakeGateway) Charge(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return g.record("charge", id, amount)
}

func (g *FakeGateway) Refund(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return g.record("refund", id, amount)
}

func (g *FakeGateway) AuthorizeDeposit(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return g.record("deposit_authorize", id, amount)
}

func (g *FakeGateway) HoldDeposit(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return g.record("deposit_hold", id, amount)
}

func (g *FakeGateway) ReleaseDeposit(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return g.record("deposit_release", id, amount)
}

func (g *FakeGateway) ForfeitDeposit(_ context.Context, id uuid.UUID, amount int64) (string, error) {
	return g.record("deposit_forfeit", id, amount)
}
