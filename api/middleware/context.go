package middleware

import (
	"context"

	"github.com/commercemesh/order-service/pkg/auth"
)

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxIdentity contextKey = "identity"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func IdentityFromContext(ctx context.Context) *auth.Identity {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxIdentity).(*auth.Identity); ok {
		return v
	}
	return nil
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithIdentity injects the parsed caller identity for downstream handlers.
func WithIdentity(ctx context.Context, ident *auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxIdentity, ident)
	if ident != nil {
		ctx = context.WithValue(ctx, ctxUserID, ident.ID.String())
	}
	return ctx
}
