package store

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/catalog/internal/core/domain"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestArtist(name string) *domain.Artist {
	return domain.NewArtist(domain.ArtistFields{
		Name:         name,
		Aliases:      []string{"N", "The Nova"},
		Description:  "Synth duo",
		Status:       domain.StatusActive,
		Availability: domain.AvailabilityAvailable,
		Tracks:       []string{"Orbit", "Flare"},
		Genre:        "electronic",
	}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
}

func strPtr(s string) *string { return &s }

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNewStore_UnsupportedDriver(t *testing.T) {
	_, err := NewStore("postgres", "whatever")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestNewSQLiteStore_Ping(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, DriverSQLite, s.Driver())
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", sqliteDSN(":memory:"))
	assert.Equal(t, "file.db?cache=shared&_foreign_keys=on", sqliteDSN("file.db?cache=shared"))
	assert.Equal(t, "file.db?_foreign_keys=off", sqliteDSN("file.db?_foreign_keys=off"))
}

// =============================================================================
// Create / Get Tests
// =============================================================================

func TestCreateArtist_AssignsID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist := newTestArtist("Nova")
	require.NoError(t, s.CreateArtist(ctx, artist))
	assert.Positive(t, artist.ID)

	got, err := s.GetArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nova", got.Name)
	assert.Equal(t, "nova", got.SafeName)
	assert.Equal(t, []string{"N", "The Nova"}, got.Aliases)
	assert.Equal(t, []string{"Orbit", "Flare"}, got.Tracks)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.Equal(t, domain.AvailabilityAvailable, got.Availability)
	assert.True(t, got.CreatedAt.Equal(artist.CreatedAt))
}

func TestCreateArtist_SequentialIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := newTestArtist("Nova")
	b := newTestArtist("Pulsar")
	require.NoError(t, s.CreateArtist(ctx, a))
	require.NoError(t, s.CreateArtist(ctx, b))

	assert.Greater(t, b.ID, a.ID)
}

func TestCreateArtist_DefaultsTimestamps(t *testing.T) {
	s := setupTestStore(t)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	artist := &domain.Artist{Name: "Nova", SafeName: "nova", Status: domain.StatusActive, Availability: domain.AvailabilityUnknown}
	require.NoError(t, s.CreateArtist(context.Background(), artist))

	assert.Equal(t, fixed, artist.CreatedAt)
	assert.Equal(t, fixed, artist.UpdatedAt)
	assert.Equal(t, []string{}, artist.Aliases)
}

func TestCreateArtist_DuplicateSafeName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateArtist(ctx, newTestArtist("Nova")))

	err := s.CreateArtist(ctx, newTestArtist("NOVA!"))
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.True(t, IsDuplicateName(err))

	all, err := s.ListArtists(ctx, DefaultListOptions())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetArtist_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetArtist(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "GetArtist", storeErr.Op)
	assert.Equal(t, "42", storeErr.ID)
}

func TestGetArtistByName_MatchesNormalizedName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	created := newTestArtist("Beyoncé")
	require.NoError(t, s.CreateArtist(ctx, created))

	for _, name := range []string{"Beyoncé", "beyonce", "BEYONCE"} {
		got, err := s.GetArtistByName(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, created.ID, got.ID, name)
	}

	_, err := s.GetArtistByName(ctx, "Nova")
	assert.True(t, IsNotFound(err))
}

// =============================================================================
// Update Tests
// =============================================================================

func TestUpdateArtist_DescriptionOnly(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist := newTestArtist("Nova")
	require.NoError(t, s.CreateArtist(ctx, artist))

	changes := domain.ArtistChanges{Description: strPtr("Now a trio")}.Derive(artist)
	updated, err := s.UpdateArtist(ctx, artist.ID, changes)
	require.NoError(t, err)

	assert.Equal(t, artist.ID, updated.ID)
	assert.Equal(t, "Now a trio", updated.Description)
	assert.Equal(t, "Nova", updated.Name)
	assert.Equal(t, "nova", updated.SafeName)
	assert.Equal(t, artist.Aliases, updated.Aliases)
}

func TestUpdateArtist_RenameRecomputesSafeName(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist := newTestArtist("Nova")
	require.NoError(t, s.CreateArtist(ctx, artist))

	changes := domain.ArtistChanges{Name: strPtr("Nova Prime")}.Derive(artist)
	updated, err := s.UpdateArtist(ctx, artist.ID, changes)
	require.NoError(t, err)

	assert.Equal(t, "Nova Prime", updated.Name)
	assert.Equal(t, "nova-prime", updated.SafeName)

	byName, err := s.GetArtistByName(ctx, "nova prime")
	require.NoError(t, err)
	assert.Equal(t, artist.ID, byName.ID)
}

func TestUpdateArtist_AliasesRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist := newTestArtist("Nova")
	require.NoError(t, s.CreateArtist(ctx, artist))

	aliases := []string{"zeta", "alpha", "Mu, with comma", "zeta"}
	_, err := s.UpdateArtist(ctx, artist.ID, domain.ArtistChanges{Aliases: &aliases})
	require.NoError(t, err)

	got, err := s.GetArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.Equal(t, aliases, got.Aliases)
}

func TestUpdateArtist_BumpsUpdatedAt(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist := newTestArtist("Nova")
	require.NoError(t, s.CreateArtist(ctx, artist))

	later := artist.CreatedAt.Add(time.Hour)
	s.now = func() time.Time { return later }

	updated, err := s.UpdateArtist(ctx, artist.ID, domain.ArtistChanges{Genre: strPtr("ambient")})
	require.NoError(t, err)

	assert.True(t, updated.UpdatedAt.Equal(later))
	assert.True(t, updated.CreatedAt.Equal(artist.CreatedAt))
}

func TestUpdateArtist_EmptyChanges(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist := newTestArtist("Nova")
	require.NoError(t, s.CreateArtist(ctx, artist))

	updated, err := s.UpdateArtist(ctx, artist.ID, domain.ArtistChanges{})
	require.NoError(t, err)
	assert.Equal(t, "Nova", updated.Name)
}

func TestUpdateArtist_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.UpdateArtist(context.Background(), 99, domain.ArtistChanges{Notes: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateArtist_RenameCollision(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	nova := newTestArtist("Nova")
	pulsar := newTestArtist("Pulsar")
	require.NoError(t, s.CreateArtist(ctx, nova))
	require.NoError(t, s.CreateArtist(ctx, pulsar))

	changes := domain.ArtistChanges{Name: strPtr("nova")}.Derive(pulsar)
	_, err := s.UpdateArtist(ctx, pulsar.ID, changes)
	assert.ErrorIs(t, err, ErrDuplicateName)

	got, err := s.GetArtist(ctx, pulsar.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pulsar", got.Name)
}

// =============================================================================
// List Tests
// =============================================================================

func TestListArtists_Pagination(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"A1", "B2", "C3", "D4"} {
		require.NoError(t, s.CreateArtist(ctx, newTestArtist(name)))
	}

	page, err := s.ListArtists(ctx, ListOptions{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "B2", page[0].Name)
	assert.Equal(t, "C3", page[1].Name)
}

func TestListArtists_Empty(t *testing.T) {
	s := setupTestStore(t)

	artists, err := s.ListArtists(context.Background(), DefaultListOptions())
	require.NoError(t, err)
	assert.Empty(t, artists)
}

func TestListOptions_Normalize(t *testing.T) {
	assert.Equal(t, ListOptions{Limit: 100}, ListOptions{}.Normalize())
	assert.Equal(t, ListOptions{Limit: 1000}, ListOptions{Limit: 5000}.Normalize())
	assert.Equal(t, ListOptions{Limit: 10}, ListOptions{Limit: 10, Offset: -3}.Normalize())
}

// =============================================================================
// Transaction Tests
// =============================================================================

func TestWithTx_Commit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist := newTestArtist("Nova")
	err := s.WithTx(ctx, func(tx Store) error {
		return tx.CreateArtist(ctx, artist)
	})
	require.NoError(t, err)

	_, err = s.GetArtist(ctx, artist.ID)
	assert.NoError(t, err)
}

func TestWithTx_Rollback(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	artist := newTestArtist("Nova")
	err := s.WithTx(ctx, func(tx Store) error {
		if err := tx.CreateArtist(ctx, artist); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = s.GetArtistByName(ctx, "Nova")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithTx_Nested(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx Store) error {
		return tx.WithTx(ctx, func(inner Store) error {
			return inner.CreateArtist(ctx, newTestArtist("Nova"))
		})
	})
	require.NoError(t, err)

	_, err = s.GetArtistByName(ctx, "Nova")
	assert.NoError(t, err)
}

// =============================================================================
// Error Mapping Tests
// =============================================================================

func TestIsUniqueViolation_MySQL(t *testing.T) {
	assert.True(t, isUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, isUniqueViolation(&mysql.MySQLError{Number: 1045}))
	assert.False(t, isUniqueViolation(assert.AnError))
}

func TestStoreError_Message(t *testing.T) {
	err := NewStoreError("GetArtist", "artist", "7", "artist not found", ErrNotFound)
	assert.Equal(t, "GetArtist artist 7: artist not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)

	err = NewStoreError("WithTx", "", "", "failed", ErrTxFailed)
	assert.Equal(t, "WithTx: failed", err.Error())
}
