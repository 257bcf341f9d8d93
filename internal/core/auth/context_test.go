package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FromGatewayHeaders Tests
// =============================================================================

func TestFromGatewayHeaders_Unauthenticated(t *testing.T) {
	ctx := FromGatewayHeaders(MapHeaderGetter{})

	assert.False(t, ctx.Authenticated)
	assert.Empty(t, ctx.Subject)
	assert.Empty(t, ctx.Permissions)
}

func TestFromGatewayHeaders_BlankUserID(t *testing.T) {
	ctx := FromGatewayHeaders(MapHeaderGetter{HeaderUserID: "   "})
	assert.False(t, ctx.Authenticated)
}

func TestFromGatewayHeaders_Authenticated(t *testing.T) {
	ctx := FromGatewayHeaders(MapHeaderGetter{
		HeaderUserID:      "user_12345",
		HeaderPermissions: "artists:write, albums:read",
	})

	assert.True(t, ctx.Authenticated)
	assert.Equal(t, "user_12345", ctx.Subject)
	assert.Equal(t, []string{"artists:write", "albums:read"}, ctx.Permissions)
}

func TestParsePermissions(t *testing.T) {
	assert.Nil(t, ParsePermissions(""))
	assert.Equal(t, []string{"a", "b"}, ParsePermissions(" a ,, b ,"))
}

// =============================================================================
// FromBearer Tests
// =============================================================================

func TestFromBearer_ValidToken(t *testing.T) {
	v := NewTokenVerifier("s3cret")
	token, err := v.Issue("user_1", []string{PermissionArtistsWrite}, time.Hour)
	require.NoError(t, err)

	ctx := FromBearer(MapHeaderGetter{HeaderAuthorization: "Bearer " + token}, v)

	assert.True(t, ctx.Authenticated)
	assert.Equal(t, "user_1", ctx.Subject)
	assert.Equal(t, []string{PermissionArtistsWrite}, ctx.Permissions)
}

func TestFromBearer_WrongSecret(t *testing.T) {
	token, err := NewTokenVerifier("other").Issue("user_1", []string{PermissionAdmin}, time.Hour)
	require.NoError(t, err)

	ctx := FromBearer(MapHeaderGetter{HeaderAuthorization: "Bearer " + token}, NewTokenVerifier("s3cret"))

	assert.False(t, ctx.Authenticated)
}

func TestFromBearer_Expired(t *testing.T) {
	v := NewTokenVerifier("s3cret")
	claims := Claims{
		Permissions: []string{PermissionAdmin},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	ctx := FromBearer(MapHeaderGetter{HeaderAuthorization: "Bearer " + token}, v)

	assert.False(t, ctx.Authenticated)
}

func TestFromBearer_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user_1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	ctx := FromBearer(MapHeaderGetter{HeaderAuthorization: "Bearer " + token}, NewTokenVerifier("s3cret"))

	assert.False(t, ctx.Authenticated)
}

func TestFromBearer_MissingSubject(t *testing.T) {
	v := NewTokenVerifier("s3cret")
	token, err := v.Issue("", []string{PermissionAdmin}, 0)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromBearer_MalformedHeader(t *testing.T) {
	v := NewTokenVerifier("s3cret")

	for _, header := range []string{"", "Bearer ", "Basic abc", "Bearer not.a.jwt"} {
		ctx := FromBearer(MapHeaderGetter{HeaderAuthorization: header}, v)
		assert.False(t, ctx.Authenticated, header)
	}
}

func TestFromBearer_NilVerifier(t *testing.T) {
	ctx := FromBearer(MapHeaderGetter{HeaderAuthorization: "Bearer x.y.z"}, nil)
	assert.False(t, ctx.Authenticated)
}

// =============================================================================
// Context Storage Tests
// =============================================================================

func TestWithContext_RoundTrip(t *testing.T) {
	authCtx := Context{Subject: "user_1", Permissions: []string{"admin"}, Authenticated: true}

	ctx := WithContext(context.Background(), authCtx)

	assert.Equal(t, authCtx, FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	ctx := FromContext(context.Background())
	assert.False(t, ctx.Authenticated)
}

func TestHasPermission(t *testing.T) {
	ctx := Context{Permissions: []string{"a", "b"}}
	assert.True(t, ctx.HasPermission("b"))
	assert.False(t, ctx.HasPermission("c"))
}
