package store

import (
	"context"
	"fmt"
	"time"
)

// HistoryRecord marks the most recent time a user played a song. There is at
// most one row per (user, song) pair: replays overwrite played_at, so row
// counts measure distinct songs played, never total plays.
type HistoryRecord struct {
	UserID   int64     `json:"userId"`
	SongID   int64     `json:"songId"`
	PlayedAt time.Time `json:"playedAt"`
}

// RecordPlay upserts the last-played-at marker for (user, song).
func (s *Store) RecordPlay(ctx context.Context, userID, songID int64, playedAt time.Time) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO play_history (user_id, song_id, played_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, song_id)
		DO UPDATE SET played_at = EXCLUDED.played_at`,
		userID, songID, playedAt); err != nil {
		return fmt.Errorf("record play: %w", err)
	}
	return nil
}

// History returns a user's records ordered by played_at descending: the most
// recently played distinct songs, not a full play log.
func (s *Store) History(ctx context.Context, userID int64) ([]HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, song_id, played_at
		FROM play_history
		WHERE user_id = $1
		ORDER BY played_at DESC, song_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var record HistoryRecord
		if err := rows.Scan(&record.UserID, &record.SongID, &record.PlayedAt); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}
