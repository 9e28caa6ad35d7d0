package actorctx

import (
	"context"

	"github.com/ArnavJain-cy/sih-app/internal/auth"
)

type ctxKey struct{}

// WithIdentity stores the authenticated caller on a request context so code
// below the HTTP layer can read it without gin.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(auth.Identity)
	return id, ok && id.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)
	return id.UserID, ok
}
