package store

import (
	"context"
	"fmt"
	"time"
)

// QueueEntry is one row of a user's play queue. Position is 1-based and
// dense; OriginalPosition is the position recorded at the latest shuffle
// boundary, used to undo shuffling.
type QueueEntry struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"userId"`
	SongID           int64     `json:"songId"`
	Position         int       `json:"position"`
	OriginalPosition int       `json:"originalPosition"`
	AddedAt          time.Time `json:"addedAt"`
}

// Queue returns a user's queue entries ordered by position.
func (s *Store) Queue(ctx context.Context, userID int64) ([]QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, song_id, position, original_position, added_at
		FROM play_queue
		WHERE user_id = $1
		ORDER BY position ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	defer rows.Close()

	var entries []QueueEntry
	for rows.Next() {
		var entry QueueEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.SongID,
			&entry.Position, &entry.OriginalPosition, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue: %w", err)
	}
	return entries, nil
}

// ReplaceQueue deletes a user's queue and inserts the given songs at
// positions 1..N with original_position = position.
func (s *Store) ReplaceQueue(ctx context.Context, userID int64, songIDs []int64) ([]QueueEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM play_queue
		WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("clear queue: %w", err)
	}

	var entries []QueueEntry
	if len(songIDs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO play_queue (user_id, song_id, position, original_position, added_at)
			VALUES ($1, $2, $3, $3, $4)
			RETURNING id, added_at`)
		if err != nil {
			return nil, fmt.Errorf("prepare queue insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for idx, songID := range songIDs {
			entry := QueueEntry{
				UserID:           userID,
				SongID:           songID,
				Position:         idx + 1,
				OriginalPosition: idx + 1,
			}
			if err := stmt.QueryRowContext(ctx, userID, songID, idx+1, now).
				Scan(&entry.ID, &entry.AddedAt); err != nil {
				return nil, fmt.Errorf("insert queue entry: %w", err)
			}
			entries = append(entries, entry)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit queue replace: %w", err)
	}
	tx = nil

	return entries, nil
}

// AppendToQueue inserts a song at the tail of a user's queue. The new entry's
// original_position equals the assigned position, even when the queue is
// currently shuffled.
func (s *Store) AppendToQueue(ctx context.Context, userID, songID int64) (QueueEntry, error) {
	entry := QueueEntry{UserID: userID, SongID: songID}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO play_queue (user_id, song_id, position, original_position, added_at)
		SELECT $1, $2, COALESCE(MAX(position), 0) + 1, COALESCE(MAX(position), 0) + 1, NOW()
		FROM play_queue
		WHERE user_id = $1
		RETURNING id, position, original_position, added_at`, userID, songID).
		Scan(&entry.ID, &entry.Position, &entry.OriginalPosition, &entry.AddedAt)
	if err != nil {
		return QueueEntry{}, fmt.Errorf("append to queue: %w", err)
	}
	return entry, nil
}

// RemoveFromQueue deletes the entry at the given position and shifts the
// remaining entries down so positions stay dense. Removing an absent
// position is a no-op.
func (s *Store) RemoveFromQueue(ctx context.Context, userID int64, position int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM play_queue
		WHERE user_id = $1 AND position = $2`, userID, position)
	if err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE play_queue
			SET position = position - 1
			WHERE user_id = $1 AND position > $2`, userID, position); err != nil {
			return fmt.Errorf("renumber queue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit queue remove: %w", err)
	}
	tx = nil

	return nil
}

// SetQueueOrder rewrites position and original_position for the given
// entries in a single transaction. Entries are matched by row id.
func (s *Store) SetQueueOrder(ctx context.Context, userID int64, entries []QueueEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE play_queue
		SET position = $1, original_position = $2
		WHERE id = $3 AND user_id = $4`)
	if err != nil {
		return fmt.Errorf("prepare queue update: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		res, err := stmt.ExecContext(ctx, entry.Position, entry.OriginalPosition, entry.ID, userID)
		if err != nil {
			return fmt.Errorf("update queue entry: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("queue entry %d vanished during reorder", entry.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit queue reorder: %w", err)
	}
	tx = nil

	return nil
}
