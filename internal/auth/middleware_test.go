package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(captured **http.Request) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = r
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_MissingHeader(t *testing.T) {
	tm := newTestTokenManager()
	handler := Middleware(tm)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	tm := newTestTokenManager()
	handler := Middleware(tm)(okHandler(nil))

	for _, header := range []string{"Basic abc123", "Bearer", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/pets", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q should be rejected", header)
	}
}

func TestMiddleware_ValidTokenInjectsClaims(t *testing.T) {
	tm := newTestTokenManager()
	token, err := tm.GenerateAccessToken("user-1", "alice@example.com", "adopter")
	require.NoError(t, err)

	var captured *http.Request
	handler := Middleware(tm)(okHandler(&captured))

	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)

	claims := GetUserFromContext(captured)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "adopter", claims.Role)
}

func TestMiddleware_RejectsRefreshToken(t *testing.T) {
	tm := newTestTokenManager()
	token, err := tm.GenerateRefreshToken("user-1", "alice@example.com", "adopter")
	require.NoError(t, err)

	handler := Middleware(tm)(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tm := newTestTokenManager()

	tests := []struct {
		name     string
		role     string
		allowed  []string
		expected int
	}{
		{"matching role", "shelter", []string{"shelter", "admin"}, http.StatusOK},
		{"admin passes shelter gate", "admin", []string{"shelter", "admin"}, http.StatusOK},
		{"adopter blocked from shelter gate", "adopter", []string{"shelter", "admin"}, http.StatusForbidden},
		{"shelter blocked from admin gate", "shelter", []string{"admin"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tm.GenerateAccessToken("user-1", "user@example.com", tt.role)
			require.NoError(t, err)

			handler := Middleware(tm)(RequireRole(tt.allowed...)(okHandler(nil)))

			req := httptest.NewRequest(http.MethodGet, "/pets", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestRequireRole_WithoutMiddleware(t *testing.T) {
	handler := RequireRole("admin")(okHandler(nil))

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	assert.Nil(t, GetUserFromContext(req))
}
