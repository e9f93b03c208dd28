package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolake/internal/domain"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func identityFor(t *testing.T, authHeader string) domain.Identity {
	t.Helper()

	var got domain.Identity
	handler := NewAuthenticator(testSecret).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = domain.IdentityFromContext(r.Context())
		}))

	req := httptest.NewRequest(http.MethodPost, "/rpc/geodb_check_user", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// The middleware never rejects; callers proceed as someone.
	assert.Equal(t, http.StatusOK, rec.Code)
	return got
}

func TestAuthenticatorValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":   "alice",
		"scope": "read:collections",
		"adm":   true,
	})

	id := identityFor(t, "Bearer "+token)
	assert.Equal(t, "alice", id.Name)
	assert.Equal(t, "read:collections", id.Scope)
	assert.True(t, id.IsAdmin)
	assert.False(t, id.IsAnonymous())
}

func TestAuthenticatorMissingTokenIsAnonymous(t *testing.T) {
	id := identityFor(t, "")
	assert.True(t, id.IsAnonymous())
	assert.Equal(t, domain.AnonymousName, id.Name)
}

func TestAuthenticatorBadSignatureIsAnonymous(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"})
	s, err := tok.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	id := identityFor(t, "Bearer "+s)
	assert.True(t, id.IsAnonymous())
}

func TestAuthenticatorEmptySubjectIsAnonymous(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"scope": "read"})
	id := identityFor(t, "Bearer "+token)
	assert.True(t, id.IsAnonymous())
}
