package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/contract"
	"github.com/spacefindr/core/internal/lock"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/repository"
)

type ContractService struct {
	bookings  repository.BookingRepository
	spaces    repository.SpaceRepository
	contracts repository.ContractRepository
	identity  *IdentityService
	renderer  *contract.Renderer
	store     contract.Store
	locker    lock.Locker
	clock     booking.Clock
}

func NewContractService(
	bookings repository.BookingRepository,
	spaces repository.SpaceRepository,
	contracts repository.ContractRepository,
	identity *IdentityService,
	renderer *contract.Renderer,
	store contract.Store,
	locker lock.Locker,
	clock booking.Clock,
) *ContractService {
	return &ContractService{
		bookings:  bookings,
		spaces:    spaces,
		contracts: contracts,
		identity:  identity,
		renderer:  renderer,
		store:     store,
		locker:    locker,
		clock:     clock,
	}
}

// Generate формирует (или переформирует) договор по бронированию.
// Каждая генерация, новая ревизия документа; финальный договор не меняется.
func (s *ContractService) Generate(ctx context.Context, bookingID uuid.UUID) (*model.Contract, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "contract:"+bookingID.String())
	if err != nil {
		return nil, fmt.Errorf("lock contract: %w", err)
	}
	defer unlock()

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !isParty(actor, b) {
		return nil, fmt.Errorf("%w: not a party of booking %s", booking.ErrUnauthorized, bookingID)
	}

	c, err := s.contracts.GetByBookingID(ctx, bookingID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c = &model.Contract{BookingID: bookingID, Status: model.ContractStatusDraft}
	case err != nil:
		return nil, err
	case c.Status == model.ContractStatusFinalized:
		return nil, fmt.Errorf("%w: booking %s", contract.ErrFinalized, bookingID)
	default:
		c.Revision++
	}
	if c.Revision == 0 {
		c.Revision = 1
	}

	space, err := s.spaces.GetByID(ctx, b.SpaceID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.identity.Profile(ctx, b.TenantID)
	if err != nil {
		return nil, err
	}
	landlord, err := s.identity.Profile(ctx, b.LandlordID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	terms, err := contract.BuildTerms(b, space, tenant, landlord, c.Revision, now)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(terms)
	if err != nil {
		return nil, err
	}
	key := contract.DocumentKey(bookingID, c.Revision)
	if err := s.store.Put(ctx, key, doc, contract.ContentType); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(terms)
	if err != nil {
		return nil, fmt.Errorf("marshal terms: %w", err)
	}
	c.Terms = datatypes.JSON(raw)
	c.DocumentKey = key

	if err := s.contracts.Save(ctx, c, contractEvent(actor, c, model.EventTypeContractGenerated, "", string(model.ContractStatusDraft))); err != nil {
		return nil, finalizedErr(err, bookingID)
	}
	return c, nil
}

// Finalize фиксирует договор. Делает арендодатель или администратор.
// Ждёт, пока закончится идущая генерация той же ревизии.
func (s *ContractService) Finalize(ctx context.Context, bookingID uuid.UUID) (*model.Contract, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, "contract:"+bookingID.String())
	if err != nil {
		return nil, fmt.Errorf("lock contract: %w", err)
	}
	defer unlock()

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.ID != b.LandlordID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only the landlord can finalize the contract", booking.ErrUnauthorized)
	}
	c, err := s.contracts.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.ContractStatusFinalized {
		return nil, fmt.Errorf("%w: booking %s", contract.ErrFinalized, bookingID)
	}
	if !contract.Contractable(b.Status) {
		return nil, fmt.Errorf("%w: booking %s is %s", contract.ErrNotContractable, bookingID, b.Status)
	}

	now := s.clock.Now()
	c.Status = model.ContractStatusFinalized
	c.FinalizedAt = &now
	ev := contractEvent(actor, c, model.EventTypeContractFinalized, string(model.ContractStatusDraft), string(model.ContractStatusFinalized))
	if err := s.contracts.Save(ctx, c, ev); err != nil {
		return nil, finalizedErr(err, bookingID)
	}
	return c, nil
}

// Document возвращает отрендеренный документ текущей ревизии.
func (s *ContractService) Document(ctx context.Context, bookingID uuid.UUID) (*model.Contract, []byte, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !isParty(actor, b) {
		return nil, nil, fmt.Errorf("%w: not a party of booking %s", booking.ErrUnauthorized, bookingID)
	}
	c, err := s.contracts.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.store.Get(ctx, c.DocumentKey)
	if err != nil {
		return nil, nil, err
	}
	return c, doc, nil
}

func finalizedErr(err error, bookingID uuid.UUID) error {
	if errors.Is(err, repository.ErrContractFinalized) {
		return fmt.Errorf("%w: booking %s", contract.ErrFinalized, bookingID)
	}
	return err
}

func contractEvent(actor booking.Actor, c *model.Contract, kind model.EventType, from, to string) *model.Event {
	actorID := actor.ID
	bookingID := c.BookingID
	details := model.EventDetails(map[string]any{
		"revision":    c.Revision,
		"documentKey": c.DocumentKey,
	})
	return &model.Event{
		EventType:  kind,
		ActorID:    &actorID,
		BookingID:  &bookingID,
		FromStatus: from,
		ToStatus:   to,
		Details:    details,
	}
}
