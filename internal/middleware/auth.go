// Package middleware provides the HTTP middleware chain: authentication,
// request IDs, and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"geolake/internal/domain"
)

// Authenticator validates Bearer tokens signed with a shared HS256 secret and
// attaches the resulting identity to the request context. A missing or
// invalid token does not reject the request: the caller proceeds as the
// anonymous identity and the authorization checks downstream decide what it
// may do.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Middleware resolves the caller identity for each request.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := domain.Identity{Name: domain.AnonymousName}
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			if parsed, ok := a.parse(strings.TrimPrefix(auth, "Bearer ")); ok {
				id = parsed
			}
		}
		next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
	})
}

// parse verifies the token and maps its claims onto an Identity. The subject
// names the principal, "scope" carries the raw permission-scope string, and
// "adm" marks administrators.
func (a *Authenticator) parse(tokenStr string) (domain.Identity, bool) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return domain.Identity{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, false
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return domain.Identity{}, false
	}

	id := domain.Identity{Name: sub}
	if scope, ok := claims["scope"].(string); ok {
		id.Scope = scope
	}
	if adm, ok := claims["adm"].(bool); ok {
		id.IsAdmin = adm
	}
	return id, true
}
