package store

import (
	"context"

	"github.com/artpar/catalog/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for catalog entities.
type Store interface {
	// Artist operations
	CreateArtist(ctx context.Context, artist *domain.Artist) error
	GetArtist(ctx context.Context, id int64) (*domain.Artist, error)
	GetArtistByName(ctx context.Context, name string) (*domain.Artist, error)
	UpdateArtist(ctx context.Context, id int64, changes domain.ArtistChanges) (*domain.Artist, error)
	ListArtists(ctx context.Context, opts ListOptions) ([]domain.Artist, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination and filtering options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
