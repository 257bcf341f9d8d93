// Package middleware provides HTTP middleware for the catalog API.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/artpar/catalog/internal/core/auth"
)

// Auth modes.
const (
	// ModeHeader trusts identity headers injected by a gateway.
	ModeHeader = "header"
	// ModeJWT verifies "Authorization: Bearer" tokens.
	ModeJWT = "jwt"
	// ModeDev treats every request as an admin. Local use only.
	ModeDev = "dev"
	// ModeNone leaves every request unauthenticated.
	ModeNone = "none"
)

// Modes lists the supported auth modes.
func Modes() []string {
	return []string{ModeHeader, ModeJWT, ModeDev, ModeNone}
}

// =============================================================================
// Auth Configuration
// =============================================================================

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// Mode selects how identity is extracted. Empty means ModeHeader.
	Mode string

	// SharedSecret is an optional secret to validate the X-Gateway-Secret header.
	// If empty, secret validation is skipped.
	SharedSecret string

	// JWTSecret signs and verifies bearer tokens in ModeJWT.
	JWTSecret string

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware extracts the caller's auth context and stores it in the
// request context. It does not decide what the caller may do; handlers do.
type AuthMiddleware struct {
	config   AuthConfig
	verifier *auth.TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware with the given config.
func NewAuthMiddleware(cfg AuthConfig) *AuthMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeHeader
	}
	m := &AuthMiddleware{config: cfg}
	if cfg.Mode == ModeJWT && cfg.JWTSecret != "" {
		m.verifier = auth.NewTokenVerifier(cfg.JWTSecret)
	}
	return m
}

// Handler returns the middleware handler function.
// Only a shared secret mismatch is rejected here (403); a missing or bad
// identity yields an unauthenticated context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.SharedSecret != "" && m.config.Mode != ModeDev {
			if r.Header.Get(auth.HeaderGatewaySecret) != m.config.SharedSecret {
				m.config.Logger.Warn("invalid gateway secret",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusForbidden, "Invalid gateway secret.")
				return
			}
		}

		var ctx auth.Context
		switch m.config.Mode {
		case ModeHeader:
			ctx = auth.FromGatewayHeaders(r.Header)
		case ModeJWT:
			ctx = auth.FromBearer(r.Header, m.verifier)
		case ModeDev:
			ctx = auth.DevContext()
		default:
			ctx = auth.Context{Authenticated: false}
		}

		r = r.WithContext(auth.WithContext(r.Context(), ctx))

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// JSON Error Response
// =============================================================================

// errorBody matches the API's error envelope.
type errorBody struct {
	Message string `json:"message"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Message: message})
}
