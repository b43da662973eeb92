package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRecordPlayUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	playedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO play_history (user_id, song_id, played_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, song_id)
		DO UPDATE SET played_at = EXCLUDED.played_at`)).
		WithArgs(int64(7), int64(10), playedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.RecordPlay(context.Background(), 7, 10, playedAt); err != nil {
		t.Fatalf("RecordPlay: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHistoryOrdersByPlayedAtDescending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	newer := time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
	older := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT user_id, song_id, played_at
		FROM play_history
		WHERE user_id = $1
		ORDER BY played_at DESC, song_id DESC`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "song_id", "played_at"}).
			AddRow(int64(7), int64(11), newer).
			AddRow(int64(7), int64(10), older))

	records, err := s.History(context.Background(), 7)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 || records[0].SongID != 11 || records[1].SongID != 10 {
		t.Fatalf("unexpected records: %#v", records)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
