package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPlayerStateNotFound signals that a user has no player state row yet.
	ErrPlayerStateNotFound = errors.New("player state not found")
	// ErrStateConflict signals a concurrent modification of the player state
	// detected through the version column.
	ErrStateConflict = errors.New("player state modified concurrently")
)

// RepeatMode is the queue looping behavior stored on the player state.
type RepeatMode string

// Repeat modes as stored in player_states.repeat_mode.
const (
	RepeatNone RepeatMode = "NONE"
	RepeatOne  RepeatMode = "ONE"
	RepeatAll  RepeatMode = "ALL"
)

// PlayerState is the per-user playback state row. Writes go through
// UpdatePlayerState, which enforces the optimistic version check.
type PlayerState struct {
	UserID         int64      `json:"userId"`
	CurrentSongID  *int64     `json:"currentSongId,omitempty"`
	IsPlaying      bool       `json:"isPlaying"`
	IsPaused       bool       `json:"isPaused"`
	PlaybackTime   int        `json:"playbackTime"`
	Volume         int        `json:"volume"`
	ShuffleEnabled bool       `json:"shuffleEnabled"`
	RepeatMode     RepeatMode `json:"repeatMode"`
	Version        int64      `json:"-"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// PlayerState returns the state row for a user.
func (s *Store) PlayerState(ctx context.Context, userID int64) (PlayerState, error) {
	var state PlayerState
	var currentSongID sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, current_song_id, is_playing, is_paused, playback_time,
		       volume, shuffle_enabled, repeat_mode, version, updated_at
		FROM player_states
		WHERE user_id = $1`, userID).
		Scan(&state.UserID, &currentSongID, &state.IsPlaying, &state.IsPaused,
			&state.PlaybackTime, &state.Volume, &state.ShuffleEnabled,
			&state.RepeatMode, &state.Version, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerState{}, ErrPlayerStateNotFound
	}
	if err != nil {
		return PlayerState{}, fmt.Errorf("get player state: %w", err)
	}

	if currentSongID.Valid {
		state.CurrentSongID = &currentSongID.Int64
	}
	return state, nil
}

// CreatePlayerState inserts the initial state row for a user.
func (s *Store) CreatePlayerState(ctx context.Context, state PlayerState) (PlayerState, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO player_states
			(user_id, current_song_id, is_playing, is_paused, playback_time,
			 volume, shuffle_enabled, repeat_mode, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, NOW())
		RETURNING version, updated_at`,
		state.UserID, nullableID(state.CurrentSongID), state.IsPlaying, state.IsPaused,
		state.PlaybackTime, state.Volume, state.ShuffleEnabled, state.RepeatMode,
	).Scan(&state.Version, &state.UpdatedAt)
	if err != nil {
		return PlayerState{}, fmt.Errorf("insert player state: %w", err)
	}
	return state, nil
}

// UpdatePlayerState writes the state row, bumping its version. The update
// only applies when the caller holds the current version; a stale version
// yields ErrStateConflict.
func (s *Store) UpdatePlayerState(ctx context.Context, state PlayerState) (PlayerState, error) {
	err := s.db.QueryRowContext(ctx, `
		UPDATE player_states
		SET current_song_id = $1, is_playing = $2, is_paused = $3,
		    playback_time = $4, volume = $5, shuffle_enabled = $6,
		    repeat_mode = $7, version = version + 1, updated_at = NOW()
		WHERE user_id = $8 AND version = $9
		RETURNING version, updated_at`,
		nullableID(state.CurrentSongID), state.IsPlaying, state.IsPaused,
		state.PlaybackTime, state.Volume, state.ShuffleEnabled, state.RepeatMode,
		state.UserID, state.Version,
	).Scan(&state.Version, &state.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerState{}, ErrStateConflict
	}
	if err != nil {
		return PlayerState{}, fmt.Errorf("update player state: %w", err)
	}
	return state, nil
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
