// Package auth signs and verifies the bearer tokens of the admin API.
package auth

import "context"

// RoleAdmin may manage short links (disable, stats).
const RoleAdmin = "admin"

// Identity is the verified caller, stored in the request context by
// httpmiddleware.AuthRequired.
type Identity struct {
	UserID string
	Role   string
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
