package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/model"
	"github.com/spacefindr/core/internal/repository"
)

// IdentityService хранит профили пользователей, аутентифицированных
// внешним провайдером: имена и контакты нужны для договоров.
type IdentityService struct {
	users repository.UserRepository
}

func NewIdentityService(users repository.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// SyncProfile создаёт или обновляет профиль текущего пользователя.
// Роль берётся из токена, а не из запроса.
func (s *IdentityService) SyncProfile(ctx context.Context, displayName, email, phone string) (*model.User, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsSystem() {
		return nil, fmt.Errorf("%w: system actor has no profile", booking.ErrUnauthorized)
	}
	u := &model.User{
		ID:           actor.ID,
		DisplayName:  displayName,
		Email:        email,
		ContactPhone: phone,
		Role:         actor.Role,
	}
	if err := s.users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("sync profile: %w", err)
	}
	return s.users.GetByID(ctx, actor.ID)
}

// Profile — профиль пользователя или nil, если он ещё не синхронизирован.
func (s *IdentityService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return u, err
}
