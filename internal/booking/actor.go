package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/spacefindr/core/internal/model"
)

// RoleSystem: внутренние фоновые задачи (например, автозавершение).
const RoleSystem model.Role = "system"

// Actor: аутентифицированный участник, от имени которого идёт операция.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

// SystemActor используется фоновыми задачами, не пользователями.
var SystemActor = Actor{Role: RoleSystem}

func (a Actor) IsAdmin() bool  { return a.Role == model.RoleAdmin }
func (a Actor) IsSystem() bool { return a.Role == RoleSystem }

type actorKey struct{}

// WithActor кладёт участника в контекст запроса.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom достаёт участника из контекста.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
