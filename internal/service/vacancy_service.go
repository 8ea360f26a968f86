package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/repository"
	"github.com/spacefindr/core/internal/vacancy"
)

type VacancyService struct {
	reports repository.VacancyRepository
	spaces  repository.SpaceRepository
	locker  lock.Locker
	clock   booking.Clock
	reward  int64
}

func NewVacancyService(
	reports repository.VacancyRepository,
	spaces repository.SpaceRepository,
	locker lock.Locker,
	clock booking.Clock,
	reward int64,
) *VacancyService {
	return &VacancyService{reports: reports, spaces: spaces, locker: locker, clock: clock, reward: reward}
}

// Submit принимает наводку. Вход не обязателен: аноним оставляет контакты.
func (s *VacancyService) Submit(ctx context.Context, sub vacancy.Submission) (*model.VacancyReport, error) {
	if a, ok := booking.ActorFrom(ctx); ok && a.ID != uuid.Nil {
		id := a.ID
		sub.ReporterID = &id
	}
	report, err := vacancy.NewReport(sub)
	if err != nil {
		return nil, err
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ReviewRequest: решение администратора по наводке.
type ReviewRequest struct {
	To      model.VacancyStatus
	Note    string
	SpaceID *uuid.UUID
}

// Review меняет статус наводки. Проверка вознаграждения и запись идут под
// блокировкой адреса: две наводки на один адрес не станут eligible одновременно.
func (s *VacancyService) Review(ctx context.Context, id uuid.UUID, req ReviewRequest) (*model.VacancyReport, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "address:"+report.AddressKey)
	if err != nil {
		return nil, fmt.Errorf("lock address: %w", err)
	}
	defer unlock()

	// перечитываем под блокировкой
	report, err = s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SpaceID != nil {
		if _, err := s.spaces.GetByID(ctx, *req.SpaceID); err != nil {
			return nil, fmt.Errorf("space %s: %w", *req.SpaceID, err)
		}
	}

	rewarded := false
	if req.To == model.VacancyStatusVerified {
		if rewarded, err = s.reports.AddressRewarded(ctx, report.AddressKey, report.ID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	next, err := vacancy.Review(report, actor.IsAdmin(), vacancy.Decision{
		ReviewerID:      actor.ID,
		To:              req.To,
		Note:            req.Note,
		At:              now,
		AddressRewarded: rewarded,
		RewardAmount:    s.reward,
		SpaceID:         req.SpaceID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.reports.Save(ctx, report, next, vacancyEvent(actor, report, next, now)); err != nil {
		return nil, err
	}
	return next, nil
}

// PayReward фиксирует ручную выплату вознаграждения. Идёт под той же
// блокировкой адреса, что и Review.
func (s *VacancyService) PayReward(ctx context.Context, id uuid.UUID) (*model.VacancyReport, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "address:"+report.AddressKey)
	if err != nil {
		return nil, fmt.Errorf("lock address: %w", err)
	}
	defer unlock()

	report, err = s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	next, err := vacancy.PayReward(report, actor.IsAdmin(), now)
	if err != nil {
		return nil, err
	}
	if err := s.reports.Save(ctx, report, next, vacancyEvent(actor, report, next, now)); err != nil {
		return nil, err
	}
	return next, nil
}

// List: очередь наводок для администраторов.
func (s *VacancyService) List(ctx context.Context, status model.VacancyStatus, page, size int) (calendar.Page[model.VacancyReport], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return calendar.Page[model.VacancyReport]{}, err
	}
	if !actor.IsAdmin() {
		return calendar.Page[model.VacancyReport]{}, fmt.Errorf("%w: admin only", booking.ErrUnauthorized)
	}
	page, size, offset := calendar.NormalizePage(page, size)
	items, total, err := s.reports.List(ctx, status, size, offset)
	if err != nil {
		return calendar.Page[model.VacancyReport]{}, err
	}
	return calendar.NewPage(items, page, size, total), nil
}

func vacancyEvent(actor booking.Actor, before, after *model.VacancyReport, at time.Time) *model.Event {
	actorID := actor.ID
	subject := after.ID
	details := model.EventDetails(map[string]any{
		"rewardFrom":   before.RewardStatus,
		"rewardTo":     after.RewardStatus,
		"rewardAmount": after.RewardAmount,
		"note":         after.AdminNote,
	})
	return &model.Event{
		EventType:  model.EventTypeVacancyReviewed,
		CreatedAt:  at,
		ActorID:    &actorID,
		SubjectID:  &subject,
		FromStatus: string(before.Status),
		ToStatus:   string(after.Status),
		Details:    details,
	}
}
