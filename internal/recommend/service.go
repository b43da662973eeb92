// Package recommend derives song recommendations from a user's listening
// history. History is a last-played-at map deduplicated per (user, song), so
// genre affinity counts distinct songs played, not total plays.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"tunedeck/internal/store"
)

const (
	topGenres     = 3
	songsPerGenre = 5
	maxResults    = 10
)

var (
	// ErrUserNotFound signals the acting user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoHistory signals a user without any listening history.
	ErrNoHistory = errors.New("not enough listening history")
)

// HistoryProvider reads a user's play history, most recent first.
type HistoryProvider interface {
	History(ctx context.Context, userID int64) ([]store.HistoryRecord, error)
}

// Catalog is the song-catalog surface the engine consumes.
type Catalog interface {
	SongsByIDs(ctx context.Context, ids []int64) ([]store.Song, error)
	PublicSongsByGenre(ctx context.Context, genre string, exclude []int64, limit int) ([]store.Song, error)
}

// UserDirectory answers user-existence lookups.
type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// Recommendation is a proposed song tagged with the genre that earned it.
type Recommendation struct {
	Song   store.Song `json:"song"`
	Reason string     `json:"reason"`
}

// Service computes history-driven recommendations.
type Service struct {
	history HistoryProvider
	catalog Catalog
	users   UserDirectory
}

// New constructs a recommendation Service.
func New(history HistoryProvider, catalog Catalog, users UserDirectory) *Service {
	return &Service{history: history, catalog: catalog, users: users}
}

// ForUser ranks the user's genres by distinct songs played, takes the top
// three (ties broken by genre name ascending) and proposes up to five unseen
// public songs per genre, capped at ten overall.
func (s *Service) ForUser(ctx context.Context, userID int64) ([]Recommendation, error) {
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", userID, err)
	}
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}

	records, err := s.history.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoHistory
	}

	playedIDs := lo.Map(records, func(record store.HistoryRecord, _ int) int64 {
		return record.SongID
	})
	playedSongs, err := s.catalog.SongsByIDs(ctx, playedIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve history songs: %w", err)
	}

	var recommendations []Recommendation
	for _, genre := range rankGenres(playedSongs) {
		candidates, err := s.catalog.PublicSongsByGenre(ctx, genre, playedIDs, songsPerGenre)
		if err != nil {
			return nil, fmt.Errorf("songs for genre %q: %w", genre, err)
		}
		for _, song := range candidates {
			recommendations = append(recommendations, Recommendation{
				Song:   song,
				Reason: fmt.Sprintf("Because you listen to %s", genre),
			})
			if len(recommendations) == maxResults {
				return recommendations, nil
			}
		}
	}
	return recommendations, nil
}

// rankGenres counts distinct played songs per genre and returns the top
// genres, most played first. Ties are broken by genre name ascending so the
// ranking is stable across runs.
func rankGenres(songs []store.Song) []string {
	withGenre := lo.Filter(songs, func(song store.Song, _ int) bool {
		return song.Genre != ""
	})
	byGenre := lo.GroupBy(withGenre, func(song store.Song) string {
		return song.Genre
	})

	genres := lo.Keys(byGenre)
	sort.Slice(genres, func(i, j int) bool {
		if len(byGenre[genres[i]]) != len(byGenre[genres[j]]) {
			return len(byGenre[genres[i]]) > len(byGenre[genres[j]])
		}
		return genres[i] < genres[j]
	})

	if len(genres) > topGenres {
		genres = genres[:topGenres]
	}
	return genres
}
