package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestQueueOrdersByPosition(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	addedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`
		SELECT id, user_id, song_id, position, original_position, added_at
		FROM play_queue
		WHERE user_id = $1
		ORDER BY position ASC`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "song_id", "position", "original_position", "added_at",
		}).
			AddRow(int64(1), int64(7), int64(10), 1, 1, addedAt).
			AddRow(int64(2), int64(7), int64(11), 2, 2, addedAt))

	entries, err := s.Queue(context.Background(), 7)
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(entries) != 2 || entries[0].SongID != 10 || entries[1].Position != 2 {
		t.Fatalf("unexpected entries: %#v", entries)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceQueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	addedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM play_queue
		WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectPrepare(regexp.QuoteMeta(`
		INSERT INTO play_queue (user_id, song_id, position, original_position, added_at)
		VALUES ($1, $2, $3, $3, $4)
		RETURNING id, added_at`))
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO play_queue (user_id, song_id, position, original_position, added_at)
		VALUES ($1, $2, $3, $3, $4)
		RETURNING id, added_at`)).
		WithArgs(int64(7), int64(10), 1, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "added_at"}).AddRow(int64(1), addedAt))
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO play_queue (user_id, song_id, position, original_position, added_at)
		VALUES ($1, $2, $3, $3, $4)
		RETURNING id, added_at`)).
		WithArgs(int64(7), int64(11), 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "added_at"}).AddRow(int64(2), addedAt))
	mock.ExpectCommit()

	entries, err := s.ReplaceQueue(context.Background(), 7, []int64{10, 11})
	if err != nil {
		t.Fatalf("ReplaceQueue: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for i, entry := range entries {
		if entry.Position != i+1 || entry.OriginalPosition != i+1 {
			t.Fatalf("expected dense positions, got %#v", entries)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestReplaceQueueEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM play_queue
		WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	entries, err := s.ReplaceQueue(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("ReplaceQueue: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty queue, got %#v", entries)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppendToQueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	addedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO play_queue (user_id, song_id, position, original_position, added_at)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1, COALESCE(MAX(position), 0) + 1, NOW()
		FROM play_queue
		WHERE user_id = $1
		RETURNING id, position, original_position, added_at`)).
		WithArgs(int64(7), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "position", "original_position", "added_at"}).
			AddRow(int64(5), 4, 4, addedAt))

	entry, err := s.AppendToQueue(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("AppendToQueue: %v", err)
	}
	if entry.Position != 4 || entry.OriginalPosition != 4 || entry.ID != 5 {
		t.Fatalf("unexpected entry: %#v", entry)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveFromQueueRenumbersTail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM play_queue
		WHERE user_id = $1 AND position = $2`)).
		WithArgs(int64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE play_queue
		SET position = position - 1
		WHERE user_id = $1 AND position > $2`)).
		WithArgs(int64(7), 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := s.RemoveFromQueue(context.Background(), 7, 2); err != nil {
		t.Fatalf("RemoveFromQueue: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveFromQueueAbsentPositionIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`
		DELETE FROM play_queue
		WHERE user_id = $1 AND position = $2`)).
		WithArgs(int64(7), 99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := s.RemoveFromQueue(context.Background(), 7, 99); err != nil {
		t.Fatalf("RemoveFromQueue: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetQueueOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(`
		UPDATE play_queue
		SET position = $1, original_position = $2
		WHERE id = $3 AND user_id = $4`))
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE play_queue
		SET position = $1, original_position = $2
		WHERE id = $3 AND user_id = $4`)).
		WithArgs(1, 2, int64(9), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE play_queue
		SET position = $1, original_position = $2
		WHERE id = $3 AND user_id = $4`)).
		WithArgs(2, 1, int64(8), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = s.SetQueueOrder(context.Background(), 7, []QueueEntry{
		{ID: 9, Position: 1, OriginalPosition: 2},
		{ID: 8, Position: 2, OriginalPosition: 1},
	})
	if err != nil {
		t.Fatalf("SetQueueOrder: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetQueueOrderMissingEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	s := New(db)

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta(`
		UPDATE play_queue
		SET position = $1, original_position = $2
		WHERE id = $3 AND user_id = $4`))
	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE play_queue
		SET position = $1, original_position = $2
		WHERE id = $3 AND user_id = $4`)).
		WithArgs(1, 1, int64(9), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = s.SetQueueOrder(context.Background(), 7, []QueueEntry{
		{ID: 9, Position: 1, OriginalPosition: 1},
	})
	if err == nil {
		t.Fatal("expected error for vanished entry")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
