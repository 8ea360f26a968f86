package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event: уведомление о смене статуса бронирования.
type Event struct {
	BookingID  uuid.UUID `json:"bookingId"`
	SpaceID    uuid.UUID `json:"spaceId"`
	TenantID   uuid.UUID `json:"tenantId"`
	LandlordID uuid.UUID `json:"landlordId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	At         time.Time `json:"at"`
}

// Notifier доставляет уведомления участникам (почта, пуш, шина событий).
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// LogNotifier пишет уведомления в лог. Используется, когда брокер не настроен.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, ev Event) error {
	log.Printf("notify: booking %s %s -> %s", ev.BookingID, ev.FromStatus, ev.ToStatus)
	return nil
}

// Dispatcher отправляет уведомления в фоне, после фиксации транзакции.
// Ошибки доставки только логируются: переход уже сохранён.
type Dispatcher struct {
	target  Notifier
	timeout time.Duration
	queue   chan Event

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(target Notifier, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	d := &Dispatcher{
		target:  target,
		timeout: 5 * time.Second,
		queue:   make(chan Event, buffer),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Publish ставит уведомление в очередь и не блокирует вызывающего.
// При переполненной очереди уведомление отбрасывается с записью в лог.
func (d *Dispatcher) Publish(ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Printf("notify: dispatcher closed, dropping booking %s %s -> %s", ev.BookingID, ev.FromStatus, ev.ToStatus)
		return
	}
	select {
	case d.queue <- ev:
	default:
		log.Printf("notify: queue full, dropping booking %s %s -> %s", ev.BookingID, ev.FromStatus, ev.ToStatus)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.target.Notify(ctx, ev); err != nil {
			log.Printf("notify: booking %s %s -> %s: %v", ev.BookingID, ev.FromStatus, ev.ToStatus, err)
		}
		cancel()
	}
}

// Close дожидается отправки уже поставленных в очередь уведомлений.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}
