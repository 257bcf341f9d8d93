package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/artpar/catalog/internal/core/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// testHandler is a simple handler that returns the auth context from request.
func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.FromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"authenticated": ctx.Authenticated,
			"subject":       ctx.Subject,
			"can_modify":    auth.CanModifyArtists(ctx),
		})
	})
}

func serve(t *testing.T, h http.Handler, req *http.Request) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func TestAuthMiddleware_ModeNone_SkipsAuth(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Mode: ModeNone}).Handler(testHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artists", nil)
	req.Header.Set(auth.HeaderUserID, "user_123")

	code, resp := serve(t, handler, req)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["authenticated"])
}

func TestAuthMiddleware_DefaultsToHeaderMode(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{}).Handler(testHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artists", nil)
	req.Header.Set(auth.HeaderUserID, "user_123")
	req.Header.Set(auth.HeaderPermissions, auth.PermissionArtistsWrite)

	code, resp := serve(t, handler, req)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "user_123", resp["subject"])
	assert.Equal(t, true, resp["can_modify"])
}

func TestAuthMiddleware_HeaderMode_NoHeaders(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Mode: ModeHeader}).Handler(testHandler())

	code, resp := serve(t, handler, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["authenticated"])
	assert.Equal(t, false, resp["can_modify"])
}

func TestAuthMiddleware_SharedSecret(t *testing.T) {
	var logs bytes.Buffer
	handler := NewAuthMiddleware(AuthConfig{
		Mode:         ModeHeader,
		SharedSecret: "gateway-secret",
		Logger:       slog.New(slog.NewTextHandler(&logs, nil)),
	}).Handler(testHandler())

	t.Run("missing secret", func(t *testing.T) {
		code, resp := serve(t, handler, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "Invalid gateway secret.", resp["message"])
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(auth.HeaderGatewaySecret, "nope")
		code, _ := serve(t, handler, req)
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("valid secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(auth.HeaderGatewaySecret, "gateway-secret")
		req.Header.Set(auth.HeaderUserID, "user_1")
		code, resp := serve(t, handler, req)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, resp["authenticated"])
	})

	assert.Contains(t, logs.String(), "invalid gateway secret")
}

func TestAuthMiddleware_JWTMode(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Mode: ModeJWT, JWTSecret: "s3cret"}).Handler(testHandler())

	token, err := auth.NewTokenVerifier("s3cret").Issue("user_9", []string{auth.PermissionAdmin}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/artists/1", nil)
	req.Header.Set(auth.HeaderAuthorization, "Bearer "+token)

	code, resp := serve(t, handler, req)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "user_9", resp["subject"])
	assert.Equal(t, true, resp["can_modify"])
}

func TestAuthMiddleware_JWTMode_IgnoresGatewayHeaders(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Mode: ModeJWT, JWTSecret: "s3cret"}).Handler(testHandler())

	req := httptest.NewRequest(http.MethodPatch, "/", nil)
	req.Header.Set(auth.HeaderUserID, "user_1")
	req.Header.Set(auth.HeaderPermissions, auth.PermissionAdmin)

	_, resp := serve(t, handler, req)

	assert.Equal(t, false, resp["authenticated"])
}

func TestAuthMiddleware_DevMode(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{Mode: ModeDev, SharedSecret: "ignored"}).Handler(testHandler())

	code, resp := serve(t, handler, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dev-user", resp["subject"])
	assert.Equal(t, true, resp["can_modify"])
}

// =============================================================================
// RequestID Tests
// =============================================================================

func TestRequestID_Generated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
}

func TestRequestID_Propagated(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

// =============================================================================
// RequestLogger Tests
// =============================================================================

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	handler := RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/artists", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &line))
	assert.Equal(t, "request", line["msg"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/api/v1/artists", line["path"])
	assert.Equal(t, float64(http.StatusCreated), line["status"])
	assert.Equal(t, float64(2), line["bytes"])
	assert.Equal(t, "req-1", line["request_id"])
}
