package middleware

import (
	"context"

	"github.com/angelmondragon/catering-backend/pkg/outbox"
)

// Admin is the back-office user a verified bearer token resolved to.
type Admin struct {
	ID    string
	Email string
	Role  string
}

type adminKey struct{}

func WithAdmin(ctx context.Context, admin Admin) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, adminKey{}, admin)
}

// AdminFrom reports the admin attached by AdminAuth, if any.
func AdminFrom(ctx context.Context) (Admin, bool) {
	if ctx == nil {
		return Admin{}, false
	}
	admin, ok := ctx.Value(adminKey{}).(Admin)
	return admin, ok
}

// ActorFromContext describes the authenticated admin for outbox events. It
// returns nil outside an admin request.
func ActorFromContext(ctx context.Context) *outbox.ActorRef {
	admin, ok := AdminFrom(ctx)
	if !ok {
		return nil
	}
	return outbox.AdminActor(admin.ID, admin.Email)
}
