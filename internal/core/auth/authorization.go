package auth

// =============================================================================
// Permissions
// =============================================================================

const (
	// PermissionArtistsWrite allows creating and updating artists.
	PermissionArtistsWrite = "artists:write"

	// PermissionAdmin implies every other permission.
	PermissionAdmin = "admin"
)

// =============================================================================
// Artist Authorization
// =============================================================================

// CanModifyArtists checks if the caller may create or update artist records.
// Requires an authenticated caller holding artists:write or admin.
func CanModifyArtists(ctx Context) bool {
	if !ctx.Authenticated {
		return false
	}
	return ctx.HasPermission(PermissionArtistsWrite) || ctx.HasPermission(PermissionAdmin)
}
