package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// CanModifyArtists Tests
// =============================================================================

func TestCanModifyArtists(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want bool
	}{
		{
			name: "unauthenticated",
			ctx:  Context{Authenticated: false},
			want: false,
		},
		{
			name: "unauthenticated with permission is still denied",
			ctx:  Context{Permissions: []string{PermissionArtistsWrite}},
			want: false,
		},
		{
			name: "authenticated without permissions",
			ctx:  Context{Subject: "u1", Authenticated: true},
			want: false,
		},
		{
			name: "authenticated with unrelated permission",
			ctx:  Context{Subject: "u1", Permissions: []string{"albums:write"}, Authenticated: true},
			want: false,
		},
		{
			name: "artists:write",
			ctx:  Context{Subject: "u1", Permissions: []string{PermissionArtistsWrite}, Authenticated: true},
			want: true,
		},
		{
			name: "admin",
			ctx:  Context{Subject: "u1", Permissions: []string{PermissionAdmin}, Authenticated: true},
			want: true,
		},
		{
			name: "dev context",
			ctx:  DevContext(),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModifyArtists(tt.ctx))
		})
	}
}
