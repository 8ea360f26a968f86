package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/calendar"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/repository"
	"github.com/spacefindr/core/internal/spaces"
)

type SpaceService struct {
	spaces repository.SpaceRepository
}

func NewSpaceService(spaces repository.SpaceRepository) *SpaceService {
	return &SpaceService{spaces: spaces}
}

// Create размещает помещение от имени текущего арендодателя.
func (s *SpaceService) Create(ctx context.Context, form spaces.Form) (*model.Space, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleLandlord && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only landlords can list spaces", booking.ErrUnauthorized)
	}
	space, err := form.Build(actor.ID)
	if err != nil {
		return nil, err
	}
	if err := s.spaces.Create(ctx, space); err != nil {
		return nil, err
	}
	return space, nil
}

func (s *SpaceService) Get(ctx context.Context, id uuid.UUID) (*model.Space, error) {
	return s.spaces.GetByID(ctx, id)
}

// Pricing: новые цены. nil в недельной/месячной цене снимает тариф.
type Pricing struct {
	PricePerDay   int64
	PricePerWeek  *int64
	PricePerMonth *int64
}

// UpdatePricing меняет цены; уже созданные бронирования хранят свои цены.
func (s *SpaceService) UpdatePricing(ctx context.Context, id uuid.UUID, p Pricing) (*model.Space, error) {
	space, err := s.owned(ctx, id, false)
	if err != nil {
		return nil, err
	}

	form := formOf(space)
	form.PricePerDay = p.PricePerDay
	form.PricePerWeek = p.PricePerWeek
	form.PricePerMonth = p.PricePerMonth
	if _, err := form.Build(space.OwnerID); err != nil {
		return nil, err
	}

	fields := map[string]any{
		"price_per_day":   p.PricePerDay,
		"price_per_week":  p.PricePerWeek,
		"price_per_month": p.PricePerMonth,
	}
	if err := s.spaces.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.spaces.GetByID(ctx, id)
}

// SetActive: владелец снимает/возвращает объявление, администратор модерирует.
func (s *SpaceService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Space, error) {
	if _, err := s.owned(ctx, id, true); err != nil {
		return nil, err
	}
	if err := s.spaces.Update(ctx, id, map[string]any{"is_active": active}); err != nil {
		return nil, err
	}
	return s.spaces.GetByID(ctx, id)
}

func (s *SpaceService) ListMine(ctx context.Context, page, size int) (calendar.Page[model.Space], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return calendar.Page[model.Space]{}, err
	}
	page, size, offset := calendar.NormalizePage(page, size)
	items, total, err := s.spaces.ListByOwner(ctx, actor.ID, size, offset)
	if err != nil {
		return calendar.Page[model.Space]{}, err
	}
	return calendar.NewPage(items, page, size, total), nil
}

// Search — публичный каталог активных помещений.
func (s *SpaceService) Search(ctx context.Context, city string, category model.SpaceCategory, page, size int) (calendar.Page[model.Space], error) {
	page, size, offset := calendar.NormalizePage(page, size)
	items, total, err := s.spaces.ListActive(ctx, city, category, size, offset)
	if err != nil {
		return calendar.Page[model.Space]{}, err
	}
	return calendar.NewPage(items, page, size, total), nil
}

func (s *SpaceService) owned(ctx context.Context, id uuid.UUID, adminAllowed bool) (*model.Space, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	space, err := s.spaces.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if space.OwnerID != actor.ID && !(adminAllowed && actor.IsAdmin()) {
		return nil, fmt.Errorf("%w: space %s belongs to another landlord", booking.ErrUnauthorized, id)
	}
	return space, nil
}

// formOf восстанавливает форму из помещения, чтобы перепроверить правки.
func formOf(sp *model.Space) spaces.Form {
	return spaces.Form{
		Title:              sp.Title,
		Description:        sp.Description,
		ImageURL:           sp.ImageURL,
		Address:            sp.Address,
		City:               sp.City,
		PostalCode:         sp.PostalCode,
		Latitude:           sp.Latitude,
		Longitude:          sp.Longitude,
		PricePerDay:        sp.PricePerDay,
		PricePerWeek:       sp.PricePerWeek,
		PricePerMonth:      sp.PricePerMonth,
		SizeSqm:            sp.SizeSqm,
		Category:           string(sp.Category),
		MinRentalDays:      sp.MinRentalDays,
		MaxRentalDays:      sp.MaxRentalDays,
		DepositRequired:    sp.DepositRequired,
		DepositAmount:      sp.DepositAmount,
		CancellationPolicy: string(sp.CancellationPolicy),
		InstantBooking:     sp.InstantBooking,
	}
}
