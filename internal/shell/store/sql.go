package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/catalog/internal/core/domain"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// Supported database drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// SQLStore
// =============================================================================

// SQLStore implements Store on top of sqlx. SQLite and MySQL are supported.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLStore, error) {
	return NewStore(DriverSQLite, dsn)
}

// NewStore opens a database with the given driver, verifies the connection
// and runs migrations.
func NewStore(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
		dsn = sqliteDSN(dsn)
	case DriverMySQL:
	default:
		return nil, NewStoreError("NewStore", "", "", fmt.Sprintf("driver %q", driver), ErrUnsupportedDriver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, NewStoreError("NewStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// SQLite has a single writer; one connection also keeps :memory:
	// databases from splitting across the pool.
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB, driver); err != nil {
		db.Close()
		return nil, NewStoreError("NewStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLStore{db: db, driver: driver, now: time.Now}, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// Driver returns the database driver name.
func (s *SQLStore) Driver() string {
	return s.driver
}

// Ping verifies the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Artist Operations
// =============================================================================

func (s *SQLStore) CreateArtist(ctx context.Context, artist *domain.Artist) error {
	return createArtist(ctx, s.db, artist, s.now())
}

func (s *SQLStore) GetArtist(ctx context.Context, id int64) (*domain.Artist, error) {
	return getArtist(ctx, s.db, id)
}

func (s *SQLStore) GetArtistByName(ctx context.Context, name string) (*domain.Artist, error) {
	return getArtistByName(ctx, s.db, name)
}

// UpdateArtist applies changes and returns the stored record. The existence
// check, the write and the re-read share one transaction.
func (s *SQLStore) UpdateArtist(ctx context.Context, id int64, changes domain.ArtistChanges) (*domain.Artist, error) {
	var updated *domain.Artist
	err := s.WithTx(ctx, func(tx Store) error {
		var err error
		updated, err = tx.UpdateArtist(ctx, id, changes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLStore) ListArtists(ctx context.Context, opts ListOptions) ([]domain.Artist, error) {
	return listArtists(ctx, s.db, opts)
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	txS := &txStore{tx: tx, now: s.now}

	if err := fn(txS); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// =============================================================================
// Transaction Store
// =============================================================================

// txStore implements Store within a transaction.
type txStore struct {
	tx  *sqlx.Tx
	now func() time.Time
}

func (s *txStore) CreateArtist(ctx context.Context, artist *domain.Artist) error {
	return createArtist(ctx, s.tx, artist, s.now())
}

func (s *txStore) GetArtist(ctx context.Context, id int64) (*domain.Artist, error) {
	return getArtist(ctx, s.tx, id)
}

func (s *txStore) GetArtistByName(ctx context.Context, name string) (*domain.Artist, error) {
	return getArtistByName(ctx, s.tx, name)
}

func (s *txStore) UpdateArtist(ctx context.Context, id int64, changes domain.ArtistChanges) (*domain.Artist, error) {
	return updateArtist(ctx, s.tx, id, changes, s.now())
}

func (s *txStore) ListArtists(ctx context.Context, opts ListOptions) ([]domain.Artist, error) {
	return listArtists(ctx, s.tx, opts)
}

func (s *txStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just execute the function
	return fn(s)
}

func (s *txStore) Ping(ctx context.Context) error {
	return nil
}

func (s *txStore) Close() error {
	// No-op for transaction store
	return nil
}

// =============================================================================
// Driver Errors
// =============================================================================

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err is a unique constraint failure
// from either supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
