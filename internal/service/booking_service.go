package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/notify"
	"github.com/spacefindr/core/internal/payment"
	"github.com/spacefindr/core/internal/repository"
)

// Publisher — асинхронная отправка уведомлений (notify.Dispatcher).
type Publisher interface {
	Publish(ev notify.Event)
}

// Максимальное окно календаря занятости.
const maxCalendarWindowDays = 366

type BookingService struct {
	engine   *booking.Engine
	spaces   repository.SpaceRepository
	bookings repository.BookingRepository
	events   repository.EventRepository
	locker   lock.Locker
	gateway  payment.Gateway
	notifier Publisher
}

func NewBookingService(
	engine *booking.Engine,
	spaces repository.SpaceRepository,
	bookings repository.BookingRepository,
	events repository.EventRepository,
	locker lock.Locker,
	gateway payment.Gateway,
	notifier Publisher,
) *BookingService {
	return &BookingService{
		engine:   engine,
		spaces:   spaces,
		bookings: bookings,
		events:   events,
		locker:   locker,
		gateway:  gateway,
		notifier: notifier,
	}
}

// actorFrom: участник запроса; анонимным операциям с бронированиями отказываем.
func actorFrom(ctx context.Context) (booking.Actor, error) {
	a, ok := booking.ActorFrom(ctx)
	if !ok || (a.ID == uuid.Nil && !a.IsSystem()) {
		return booking.Actor{}, fmt.Errorf("%w: authentication required", booking.ErrUnauthorized)
	}
	return a, nil
}

func (s *BookingService) space(ctx context.Context, id uuid.UUID) (*model.Space, error) {
	space, err := s.spaces.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("space %s: %w", id, repository.ErrNotFound)
	}
	return space, err
}

// CheckAvailability: публичная проверка дат без создания бронирования.
func (s *BookingService) CheckAvailability(ctx context.Context, spaceID uuid.UUID, start, end time.Time) (booking.AvailabilityResult, error) {
	space, err := s.space(ctx, spaceID)
	if err != nil {
		return booking.AvailabilityResult{}, err
	}
	existing, err := s.bookings.ListActiveBySpace(ctx, spaceID)
	if err != nil {
		return booking.AvailabilityResult{}, err
	}
	return s.engine.CheckAvailability(space, start, end, existing)
}

// Quote — расчёт цены для страницы объявления.
func (s *BookingService) Quote(ctx context.Context, spaceID uuid.UUID, start, end time.Time) (booking.PriceBreakdown, error) {
	space, err := s.space(ctx, spaceID)
	if err != nil {
		return booking.PriceBreakdown{}, err
	}
	return s.engine.Quote(space, start, end)
}

// Occupancy: занятые диапазоны помещения в окне (для календаря и карты).
func (s *BookingService) Occupancy(ctx context.Context, spaceID uuid.UUID, window calendar.DateRange) ([]calendar.DateRange, error) {
	if window.Days() > maxCalendarWindowDays {
		return nil, fmt.Errorf("%w: window longer than %d days", booking.ErrInvalidDateRange, maxCalendarWindowDays)
	}
	if _, err := s.space(ctx, spaceID); err != nil {
		return nil, err
	}
	existing, err := s.bookings.ListActiveBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return booking.OccupiedRanges(existing, window), nil
}

// RequestBooking создаёт бронирование. Проверка доступности повторяется
// под блокировкой помещения и внутри транзакции, поэтому из параллельных
// запросов на пересекающиеся даты проходит ровно один.
func (s *BookingService) RequestBooking(ctx context.Context, spaceID uuid.UUID, req booking.Request) (*model.Booking, booking.PriceBreakdown, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, booking.PriceBreakdown{}, err
	}

	unlock, err := s.locker.Lock(ctx, "space:"+spaceID.String())
	if err != nil {
		return nil, booking.PriceBreakdown{}, fmt.Errorf("lock space %s: %w", spaceID, err)
	}
	defer unlock()

	var price booking.PriceBreakdown
	tr, err := s.bookings.CreateExclusive(ctx, spaceID, func(space *model.Space, existing []model.Booking) (*booking.Transition, error) {
		var (
			t   *booking.Transition
			err error
		)
		t, price, err = s.engine.Request(actor, space, req, existing)
		return t, err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, booking.PriceBreakdown{}, fmt.Errorf("space %s: %w", spaceID, err)
		}
		return nil, booking.PriceBreakdown{}, err
	}

	s.afterCommit(ctx, tr)
	created := tr.Next
	return &created, price, nil
}

// GetBooking: бронирование видят только его стороны и администраторы.
func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParty(actor, b) {
		return nil, fmt.Errorf("%w: not a party of booking %s", booking.ErrUnauthorized, id)
	}
	return b, nil
}

// History — журнал аудита бронирования.
func (s *BookingService) History(ctx context.Context, id uuid.UUID) ([]model.Event, error) {
	if _, err := s.GetBooking(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByBooking(ctx, id)
}

func isParty(a booking.Actor, b *model.Booking) bool {
	return a.IsAdmin() || a.IsSystem() || a.ID == b.TenantID || a.ID == b.LandlordID
}

func (s *BookingService) Confirm(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.transition(ctx, id, func(a booking.Actor, b *model.Booking) (*booking.Transition, error) {
		return s.engine.Confirm(a, b)
	})
}

func (s *BookingService) Reject(ctx context.Context, id uuid.UUID, reason string) (*model.Booking, error) {
	return s.transition(ctx, id, func(a booking.Actor, b *model.Booking) (*booking.Transition, error) {
		return s.engine.Reject(a, b, reason)
	})
}

// Cancel: отмена арендатором; возврат считается по текущей политике помещения.
func (s *BookingService) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Booking, *booking.Refund, error) {
	var refund *booking.Refund
	b, err := s.transition(ctx, id, func(a booking.Actor, b *model.Booking) (*booking.Transition, error) {
		space, err := s.space(ctx, b.SpaceID)
		if err != nil {
			return nil, err
		}
		tr, err := s.engine.Cancel(a, b, space.CancellationPolicy, reason)
		if err == nil {
			refund = tr.Refund
		}
		return tr, err
	})
	return b, refund, err
}

// Pay списывает полную стоимость через шлюз. Сначала оплата фиксируется
// как processing: повторный запрос на ту же версию получит ErrStaleBooking
// или IllegalTransition, а не второе списание.
func (s *BookingService) Pay(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	started, err := s.engine.StartPayment(actor, b)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateFields(ctx, started); err != nil {
		return nil, err
	}

	ref, chargeErr := s.gateway.Charge(ctx, id, started.Money.Charge)
	if chargeErr != nil {
		log.Printf("booking %s: charge %d failed: %v", id, started.Money.Charge, chargeErr)
	}
	settled, err := s.engine.SettlePayment(actor, &started.Next, chargeErr == nil, ref)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateFields(ctx, settled); err != nil {
		// деньги списаны, а статус не сохранён: нужна ручная сверка по ref
		log.Printf("booking %s: settle payment (ref=%q): %v", id, ref, err)
		return nil, err
	}

	s.afterCommit(ctx, settled)
	paid := settled.Next
	if chargeErr != nil {
		return &paid, fmt.Errorf("charge booking %s: %w", id, chargeErr)
	}
	return &paid, nil
}

func (s *BookingService) CheckIn(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.transition(ctx, id, func(a booking.Actor, b *model.Booking) (*booking.Transition, error) {
		return s.engine.CheckIn(a, b)
	})
}

func (s *BookingService) RecordCheckout(ctx context.Context, id uuid.UUID, note string) (*model.Booking, error) {
	return s.transition(ctx, id, func(a booking.Actor, b *model.Booking) (*booking.Transition, error) {
		return s.engine.RecordCheckout(a, b, note)
	})
}

func (s *BookingService) Complete(ctx context.Context, id uuid.UUID, damageClaim int64) (*model.Booking, error) {
	return s.transition(ctx, id, func(a booking.Actor, b *model.Booking) (*booking.Transition, error) {
		return s.engine.Complete(a, b, damageClaim)
	})
}

func (s *BookingService) AdminOverride(ctx context.Context, id uuid.UUID, to model.BookingStatus, reason string) (*model.Booking, error) {
	return s.transition(ctx, id, func(a booking.Actor, b *model.Booking) (*booking.Transition, error) {
		return s.engine.AdminOverride(a, b, to, reason)
	})
}

// CompleteDue завершает аренды с записанным выездом и истёкшим сроком.
// Возвращает число завершённых; ошибки по отдельным бронированиям логируются.
func (s *BookingService) CompleteDue(ctx context.Context) (int, error) {
	candidates, err := s.bookings.ListCheckedOut(ctx, 500)
	if err != nil {
		return 0, err
	}
	sysCtx := booking.WithActor(ctx, booking.SystemActor)
	today := s.engine.Today()

	done := 0
	for _, b := range candidates {
		if !today.After(calendar.DateOf(b.EndDate.UTC())) {
			continue
		}
		if _, err := s.Complete(sysCtx, b.ID, 0); err != nil {
			log.Printf("complete due booking %s: %v", b.ID, err)
			continue
		}
		done++
	}
	return done, nil
}

// RunSweeper запускает CompleteDue с периодом interval до отмены ctx.
func (s *BookingService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.CompleteDue(ctx)
			if err != nil {
				log.Printf("sweeper: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: completed %d bookings", n)
			}
		}
	}
}

// ListForTenant: бронирования текущего пользователя как арендатора.
func (s *BookingService) ListForTenant(ctx context.Context, status model.BookingStatus, page, size int) (calendar.Page[model.Booking], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return calendar.Page[model.Booking]{}, err
	}
	page, size, offset := calendar.NormalizePage(page, size)
	items, total, err := s.bookings.ListByTenant(ctx, actor.ID, status, size, offset)
	if err != nil {
		return calendar.Page[model.Booking]{}, err
	}
	return calendar.NewPage(items, page, size, total), nil
}

// ListForLandlord — входящие бронирования арендодателя.
func (s *BookingService) ListForLandlord(ctx context.Context, status model.BookingStatus, page, size int) (calendar.Page[model.Booking], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return calendar.Page[model.Booking]{}, err
	}
	page, size, offset := calendar.NormalizePage(page, size)
	items, total, err := s.bookings.ListByLandlord(ctx, actor.ID, status, size, offset)
	if err != nil {
		return calendar.Page[model.Booking]{}, err
	}
	return calendar.NewPage(items, page, size, total), nil
}

type transitionFunc func(actor booking.Actor, b *model.Booking) (*booking.Transition, error)

// transition читает бронирование, строит переход и сохраняет его
// с проверкой версии. Побочные эффекты, только после фиксации.
func (s *BookingService) transition(ctx context.Context, id uuid.UUID, fn transitionFunc) (*model.Booking, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tr, err := fn(actor, b)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.UpdateFields(ctx, tr); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, tr)
	next := tr.Next
	return &next, nil
}

func (s *BookingService) afterCommit(ctx context.Context, tr *booking.Transition) {
	if !tr.Money.IsZero() {
		// списание уже выполнено в Pay
		money := *tr
		money.Money.Charge = 0
		if err := payment.ApplyMoney(ctx, s.gateway, &money); err != nil {
			log.Printf("booking %s: money movement %+v: %v", tr.BookingID, tr.Money, err)
		}
	}
	if tr.StatusChanged() && s.notifier != nil {
		s.notifier.Publish(notify.Event{
			BookingID:  tr.BookingID,
			SpaceID:    tr.Next.SpaceID,
			TenantID:   tr.Next.TenantID,
			LandlordID: tr.Next.LandlordID,
			FromStatus: string(tr.From),
			ToStatus:   string(tr.To),
			At:         tr.At,
		})
	}
}
