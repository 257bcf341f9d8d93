package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/catalog/internal/core/domain"
)

// artistRow represents an artist row in the database.
type artistRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	SafeName     string `db:"safe_name"`
	Aliases      string `db:"aliases"`
	Description  string `db:"description"`
	Status       string `db:"status"`
	Availability string `db:"availability"`
	Tracks       string `db:"tracks"`
	Genre        string `db:"genre"`
	Notes        string `db:"notes"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

const artistColumns = `id, name, safe_name, aliases, description, status, availability,
	tracks, genre, notes, created_at, updated_at`

// =============================================================================
// Artist Queries
// =============================================================================

func createArtist(ctx context.Context, exec executor, artist *domain.Artist, now time.Time) error {
	aliasesJSON, err := encodeList(artist.Aliases)
	if err != nil {
		return NewStoreError("CreateArtist", "artist", artist.Name, "failed to serialize aliases", ErrInvalidData)
	}
	tracksJSON, err := encodeList(artist.Tracks)
	if err != nil {
		return NewStoreError("CreateArtist", "artist", artist.Name, "failed to serialize tracks", ErrInvalidData)
	}

	if artist.CreatedAt.IsZero() {
		artist.CreatedAt = now
	}
	if artist.UpdatedAt.IsZero() {
		artist.UpdatedAt = artist.CreatedAt
	}
	artist.CreatedAt = artist.CreatedAt.UTC()
	artist.UpdatedAt = artist.UpdatedAt.UTC()

	query := `
		INSERT INTO artists (
			name, safe_name, aliases, description, status, availability,
			tracks, genre, notes, created_at, updated_at
		) VALUES (
			:name, :safe_name, :aliases, :description, :status, :availability,
			:tracks, :genre, :notes, :created_at, :updated_at
		)`

	row := map[string]any{
		"name":         artist.Name,
		"safe_name":    artist.SafeName,
		"aliases":      aliasesJSON,
		"description":  artist.Description,
		"status":       string(artist.Status),
		"availability": string(artist.Availability),
		"tracks":       tracksJSON,
		"genre":        artist.Genre,
		"notes":        artist.Notes,
		"created_at":   formatTime(artist.CreatedAt),
		"updated_at":   formatTime(artist.UpdatedAt),
	}

	result, err := exec.NamedExecContext(ctx, query, row)
	if err != nil {
		if isUniqueViolation(err) {
			return NewStoreError("CreateArtist", "artist", artist.SafeName, "artist with this name already exists", ErrDuplicateName)
		}
		return NewStoreError("CreateArtist", "artist", artist.Name, err.Error(), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return NewStoreError("CreateArtist", "artist", artist.Name, "failed to read assigned id", err)
	}
	artist.ID = id
	artist.Aliases = nonNilList(artist.Aliases)
	artist.Tracks = nonNilList(artist.Tracks)

	return nil
}

func getArtist(ctx context.Context, exec executor, id int64) (*domain.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = ?`

	var row artistRow
	err := exec.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetArtist", "artist", strconv.FormatInt(id, 10), "artist not found", ErrNotFound)
		}
		return nil, NewStoreError("GetArtist", "artist", strconv.FormatInt(id, 10), err.Error(), err)
	}

	return rowToArtist(&row)
}

// getArtistByName looks an artist up by the safe name of name, so lookups
// match regardless of case, accents and punctuation.
func getArtistByName(ctx context.Context, exec executor, name string) (*domain.Artist, error) {
	safeName := domain.SafeName(name)
	query := `SELECT ` + artistColumns + ` FROM artists WHERE safe_name = ?`

	var row artistRow
	err := exec.GetContext(ctx, &row, query, safeName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetArtistByName", "artist", safeName, "artist not found", ErrNotFound)
		}
		return nil, NewStoreError("GetArtistByName", "artist", safeName, err.Error(), err)
	}

	return rowToArtist(&row)
}

// updateArtist writes only the set slots of changes, bumps updated_at and
// returns the re-read record.
func updateArtist(ctx context.Context, exec executor, id int64, changes domain.ArtistChanges, now time.Time) (*domain.Artist, error) {
	idStr := strconv.FormatInt(id, 10)

	if _, err := getArtist(ctx, exec, id); err != nil {
		if IsNotFound(err) {
			return nil, NewStoreError("UpdateArtist", "artist", idStr, "artist not found", ErrNotFound)
		}
		return nil, err
	}

	sets := make([]string, 0, 10)
	row := map[string]any{"id": id}
	set := func(column string, value any) {
		sets = append(sets, column+" = :"+column)
		row[column] = value
	}

	if changes.Name != nil {
		set("name", *changes.Name)
	}
	if changes.SafeName != nil {
		set("safe_name", *changes.SafeName)
	}
	if changes.Aliases != nil {
		aliasesJSON, err := encodeList(*changes.Aliases)
		if err != nil {
			return nil, NewStoreError("UpdateArtist", "artist", idStr, "failed to serialize aliases", ErrInvalidData)
		}
		set("aliases", aliasesJSON)
	}
	if changes.Description != nil {
		set("description", *changes.Description)
	}
	if changes.Status != nil {
		set("status", string(*changes.Status))
	}
	if changes.Availability != nil {
		set("availability", string(*changes.Availability))
	}
	if changes.Tracks != nil {
		tracksJSON, err := encodeList(*changes.Tracks)
		if err != nil {
			return nil, NewStoreError("UpdateArtist", "artist", idStr, "failed to serialize tracks", ErrInvalidData)
		}
		set("tracks", tracksJSON)
	}
	if changes.Genre != nil {
		set("genre", *changes.Genre)
	}
	if changes.Notes != nil {
		set("notes", *changes.Notes)
	}
	set("updated_at", formatTime(now.UTC()))

	query := `UPDATE artists SET ` + strings.Join(sets, ", ") + ` WHERE id = :id`

	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return nil, NewStoreError("UpdateArtist", "artist", idStr, "artist with this name already exists", ErrDuplicateName)
		}
		return nil, NewStoreError("UpdateArtist", "artist", idStr, err.Error(), err)
	}

	return getArtist(ctx, exec, id)
}

func listArtists(ctx context.Context, exec executor, opts ListOptions) ([]domain.Artist, error) {
	opts = opts.Normalize()
	query := `SELECT ` + artistColumns + ` FROM artists ORDER BY id ASC LIMIT ? OFFSET ?`

	var rows []artistRow
	err := exec.SelectContext(ctx, &rows, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, NewStoreError("ListArtists", "artist", "", err.Error(), err)
	}

	artists := make([]domain.Artist, 0, len(rows))
	for _, row := range rows {
		artist, err := rowToArtist(&row)
		if err != nil {
			return nil, err
		}
		artists = append(artists, *artist)
	}

	return artists, nil
}

// =============================================================================
// Row Conversion
// =============================================================================

// rowToArtist converts a database row to a domain.Artist, decoding the
// list columns.
func rowToArtist(row *artistRow) (*domain.Artist, error) {
	createdAt, _ := time.Parse(time.RFC3339Nano, row.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, row.UpdatedAt)

	aliases, err := decodeList(row.Aliases)
	if err != nil {
		return nil, NewStoreError("rowToArtist", "artist", strconv.FormatInt(row.ID, 10), "failed to parse aliases", ErrInvalidData)
	}
	tracks, err := decodeList(row.Tracks)
	if err != nil {
		return nil, NewStoreError("rowToArtist", "artist", strconv.FormatInt(row.ID, 10), "failed to parse tracks", ErrInvalidData)
	}

	return &domain.Artist{
		ID:           row.ID,
		Name:         row.Name,
		SafeName:     row.SafeName,
		Aliases:      aliases,
		Description:  row.Description,
		Status:       domain.Status(row.Status),
		Availability: domain.Availability(row.Availability),
		Tracks:       tracks,
		Genre:        row.Genre,
		Notes:        row.Notes,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func encodeList(values []string) (string, error) {
	data, err := json.Marshal(nonNilList(values))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(raw string) ([]string, error) {
	values := []string{}
	if raw == "" || raw == "null" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return nonNilList(values), nil
}

func nonNilList(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
