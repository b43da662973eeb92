package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func TestSongNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, title, artist, genre, duration, visibility, owner_id
		FROM songs
		WHERE id = $1`)).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err = s.Song(context.Background(), 999)
	if !errors.Is(err, ErrSongNotFound) {
		t.Fatalf("expected ErrSongNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSongScansOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, title, artist, genre, duration, visibility, owner_id
		FROM songs
		WHERE id = $1`)).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "artist", "genre", "duration", "visibility", "owner_id",
		}).AddRow(int64(10), "Demo Take", "Luna Rivers", "Ambient", 212, "private", int64(7)))

	song, err := s.Song(context.Background(), 10)
	if err != nil {
		t.Fatalf("Song: %v", err)
	}
	if song.Visibility != VisibilityPrivate || song.OwnerID == nil || *song.OwnerID != 7 {
		t.Fatalf("unexpected song: %#v", song)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSongsByIDsEmptyInput(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	songs, err := s.SongsByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("SongsByIDs: %v", err)
	}
	if songs != nil {
		t.Fatalf("expected no query for empty input, got %#v", songs)
	}
}

func TestSongsByIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, title, artist, genre, duration, visibility, owner_id
		FROM songs
		WHERE id = ANY($1)
		ORDER BY id ASC`)).
		WithArgs(pq.Array([]int64{10, 11})).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "artist", "genre", "duration", "visibility", "owner_id",
		}).
			AddRow(int64(10), "Sunrise Echoes", "Luna Rivers", "Ambient", 212, "public", nil).
			AddRow(int64(11), "Neon Reflections", "City Ghosts", "Synthwave", 265, "public", nil))

	songs, err := s.SongsByIDs(context.Background(), []int64{10, 11})
	if err != nil {
		t.Fatalf("SongsByIDs: %v", err)
	}
	if len(songs) != 2 || songs[0].Genre != "Ambient" || songs[1].ID != 11 {
		t.Fatalf("unexpected songs: %#v", songs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPublicSongsByGenreExcludesPlayed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, title, artist, genre, duration, visibility, owner_id
		FROM songs
		WHERE visibility = 'public' AND genre = $1 AND NOT (id = ANY($2))
		ORDER BY id ASC
		LIMIT $3`)).
		WithArgs("Ambient", pq.Array([]int64{10}), 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "artist", "genre", "duration", "visibility", "owner_id",
		}).AddRow(int64(12), "Starfield", "Atlas Drift", "Ambient", 279, "public", nil))

	songs, err := s.PublicSongsByGenre(context.Background(), "Ambient", []int64{10}, 5)
	if err != nil {
		t.Fatalf("PublicSongsByGenre: %v", err)
	}
	if len(songs) != 1 || songs[0].ID != 12 {
		t.Fatalf("unexpected songs: %#v", songs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
