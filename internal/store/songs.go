package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Song visibility values as stored in the songs table.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// ErrSongNotFound signals a lookup for a song id that does not exist.
var ErrSongNotFound = errors.New("song not found")

// Song represents a catalog track.
type Song struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Genre      string `json:"genre,omitempty"`
	Duration   int    `json:"duration,omitempty"`
	Visibility string `json:"visibility"`
	OwnerID    *int64 `json:"ownerId,omitempty"`
}

// Song returns a single song by ID.
func (s *Store) Song(ctx context.Context, id int64) (Song, error) {
	var song Song
	var ownerID sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, artist, genre, duration, visibility, owner_id
		FROM songs
		WHERE id = $1`, id).
		Scan(&song.ID, &song.Title, &song.Artist, &song.Genre, &song.Duration, &song.Visibility, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Song{}, ErrSongNotFound
	}
	if err != nil {
		return Song{}, fmt.Errorf("get song: %w", err)
	}

	if ownerID.Valid {
		song.OwnerID = &ownerID.Int64
	}
	return song, nil
}

// SongsByIDs returns the songs for the given ids. Missing ids are skipped;
// callers that care about completeness compare lengths themselves.
func (s *Store) SongsByIDs(ctx context.Context, ids []int64) ([]Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, artist, genre, duration, visibility, owner_id
		FROM songs
		WHERE id = ANY($1)
		ORDER BY id ASC`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query songs by ids: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

// PublicSongsByGenre returns up to limit public songs in the given genre,
// excluding the listed song ids.
func (s *Store) PublicSongsByGenre(ctx context.Context, genre string, exclude []int64, limit int) ([]Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, artist, genre, duration, visibility, owner_id
		FROM songs
		WHERE visibility = 'public' AND genre = $1 AND NOT (id = ANY($2))
		ORDER BY id ASC
		LIMIT $3`, genre, pq.Array(exclude), limit)
	if err != nil {
		return nil, fmt.Errorf("query songs by genre: %w", err)
	}
	defer rows.Close()

	return scanSongs(rows)
}

func scanSongs(rows *sql.Rows) ([]Song, error) {
	var songs []Song
	for rows.Next() {
		var song Song
		var ownerID sql.NullInt64
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.Genre, &song.Duration, &song.Visibility, &ownerID); err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		if ownerID.Valid {
			song.OwnerID = &ownerID.Int64
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate songs: %w", err)
	}
	return songs, nil
}

// CreateSong inserts a catalog song. Used by bootstrap seeding.
func (s *Store) CreateSong(ctx context.Context, song Song) (Song, error) {
	if song.Visibility == "" {
		song.Visibility = VisibilityPublic
	}
	if song.Visibility != VisibilityPublic && song.Visibility != VisibilityPrivate {
		return Song{}, fmt.Errorf("invalid visibility %q", song.Visibility)
	}

	var owner interface{}
	if song.OwnerID != nil {
		owner = *song.OwnerID
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO songs (title, artist, genre, duration, visibility, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		song.Title, song.Artist, song.Genre, song.Duration, song.Visibility, owner,
	).Scan(&song.ID)
	if err != nil {
		return Song{}, fmt.Errorf("insert song: %w", err)
	}
	return song, nil
}
