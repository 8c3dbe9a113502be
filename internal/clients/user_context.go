package clients

import (
	"context"
	"net/http"
)

// UserContext holds the caller identity forwarded to the backend for RBAC
type UserContext struct {
	TenantID  string `json:"tenantId"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail,omitempty"`
}

type userContextKey struct{}

// WithUser attaches the caller identity to ctx.
func WithUser(ctx context.Context, user UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the identity set by WithUser.
func UserFromContext(ctx context.Context) (UserContext, bool) {
	user, ok := ctx.Value(userContextKey{}).(UserContext)
	return user, ok
}

func (u UserContext) apply(h http.Header) {
	if u.TenantID != "" {
		h.Set("X-Tenant-ID", u.TenantID)
	}
	if u.UserID != "" {
		h.Set("X-User-ID", u.UserID)
	}
	if u.UserEmail != "" {
		h.Set("X-User-Email", u.UserEmail)
	}
}
