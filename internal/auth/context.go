package auth

import "context"

type contextKey struct{}

// AuthContext is the caller identity taken from a verified bearer token.
// UserID is the subject issued by the external identity provider.
type AuthContext struct {
	UserID  string
	Email   string
	TokenID string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}
