package domain

import "context"

// AnonymousName is the designated identity for unauthenticated callers.
const AnonymousName = "anonymous"

type identityKey struct{}

// Identity carries the authenticated caller through request context.
// It is supplied per call by the external authentication layer; the core
// never verifies credentials itself.
type Identity struct {
	Name    string
	Scope   string // raw permission-scope string from the token
	IsAdmin bool
}

// IsAnonymous reports whether this identity is the designated anonymous caller.
func (i Identity) IsAnonymous() bool {
	return i.Name == "" || i.Name == AnonymousName
}

// WithIdentity stores an Identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the Identity from the context. When no identity
// was attached the anonymous identity is returned.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return Identity{Name: AnonymousName}
	}
	return id
}
