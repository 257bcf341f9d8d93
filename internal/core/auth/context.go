// Package auth provides authentication context and authorization functions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// =============================================================================
// Context Key
// =============================================================================

type contextKey string

const authContextKey contextKey = "auth"

// =============================================================================
// Types
// =============================================================================

// Context represents the authentication and authorization context for a request.
type Context struct {
	// Subject identifies the caller (gateway user ID or the JWT sub claim).
	Subject string

	// Permissions granted to the caller, e.g. "artists:write".
	Permissions []string

	// Authenticated indicates whether the request is authenticated
	Authenticated bool
}

// HasPermission reports whether the context carries the given permission.
func (c Context) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// =============================================================================
// Header Constants
// =============================================================================

const (
	// HeaderUserID is the header containing the authenticated user's ID
	HeaderUserID = "X-User-ID"

	// HeaderPermissions is the header containing a comma-separated permission list
	HeaderPermissions = "X-Permissions"

	// HeaderGatewaySecret is the header containing the shared secret for validation
	HeaderGatewaySecret = "X-Gateway-Secret"

	// HeaderAuthorization carries "Bearer <jwt>"
	HeaderAuthorization = "Authorization"
)

// =============================================================================
// Context Extraction
// =============================================================================

// HeaderGetter is an interface for getting header values.
// This allows testing without requiring an http.Request.
type HeaderGetter interface {
	Get(key string) string
}

// FromGatewayHeaders extracts auth context from headers injected by a trusted
// gateway. If X-User-ID is absent, returns an unauthenticated context.
func FromGatewayHeaders(headers HeaderGetter) Context {
	subject := strings.TrimSpace(headers.Get(HeaderUserID))
	if subject == "" {
		return Context{Authenticated: false}
	}
	return Context{
		Subject:       subject,
		Permissions:   ParsePermissions(headers.Get(HeaderPermissions)),
		Authenticated: true,
	}
}

// FromBearer extracts auth context from an "Authorization: Bearer <jwt>"
// header. Tokens that fail verification yield an unauthenticated context.
func FromBearer(headers HeaderGetter, verifier *TokenVerifier) Context {
	if verifier == nil {
		return Context{Authenticated: false}
	}
	raw, ok := strings.CutPrefix(headers.Get(HeaderAuthorization), "Bearer ")
	if !ok || raw == "" {
		return Context{Authenticated: false}
	}
	ctx, err := verifier.Verify(raw)
	if err != nil {
		return Context{Authenticated: false}
	}
	return ctx
}

// ParsePermissions splits a comma-separated permission list, dropping blanks.
func ParsePermissions(raw string) []string {
	if raw == "" {
		return nil
	}
	var perms []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	return perms
}

// DevContext is the context used in dev mode: a local operator with every
// permission.
func DevContext() Context {
	return Context{
		Subject:       "dev-user",
		Permissions:   []string{PermissionAdmin},
		Authenticated: true,
	}
}

// =============================================================================
// Token Verification
// =============================================================================

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload accepted by the catalog.
type Claims struct {
	Permissions []string `json:"perms,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier verifies HS256-signed bearer tokens with a shared secret.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the given shared secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify checks the signature and expiry of a token and returns the
// context it grants.
func (v *TokenVerifier) Verify(token string) (Context, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Context{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Context{}, ErrInvalidToken
	}
	return Context{
		Subject:       claims.Subject,
		Permissions:   claims.Permissions,
		Authenticated: true,
	}, nil
}

// Issue signs a token for subject with the given permissions.
// A zero ttl issues a token without expiry.
func (v *TokenVerifier) Issue(subject string, perms []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// =============================================================================
// Context Storage
// =============================================================================

// WithContext stores the auth context in the request context.
func WithContext(ctx context.Context, authCtx Context) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// FromContext retrieves the auth context from the request context.
// If no auth context is found, returns an unauthenticated context.
func FromContext(ctx context.Context) Context {
	if authCtx, ok := ctx.Value(authContextKey).(Context); ok {
		return authCtx
	}
	return Context{Authenticated: false}
}

// FromRequest is FromContext for an incoming request.
func FromRequest(r *http.Request) Context {
	return FromContext(r.Context())
}

// =============================================================================
// Helper Types for Testing
// =============================================================================

// MapHeaderGetter wraps a map to implement HeaderGetter interface.
// This is useful for testing without creating http.Request objects.
type MapHeaderGetter map[string]string

func (m MapHeaderGetter) Get(key string) string {
	return m[key]
}
