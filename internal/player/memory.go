package player

import (
	"context"
	"sort"
	"sync"
	"time"

	"tunedeck/internal/store"
)

// In-memory implementations of the engine's store interfaces. They mirror
// the Postgres semantics (dense positions, version checks, last-played-at
// upsert) and back the test suites and local experimentation.

// MemoryStateStore keeps player states in a map guarded by a RWMutex.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[int64]store.PlayerState
}

// NewMemoryStateStore returns an empty state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[int64]store.PlayerState)}
}

// PlayerState returns the state row for a user.
func (m *MemoryStateStore) PlayerState(_ context.Context, userID int64) (store.PlayerState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[userID]
	if !ok {
		return store.PlayerState{}, store.ErrPlayerStateNotFound
	}
	return state, nil
}

// CreatePlayerState inserts the initial state row for a user.
func (m *MemoryStateStore) CreatePlayerState(_ context.Context, state store.PlayerState) (store.PlayerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state.Version = 1
	state.UpdatedAt = time.Now().UTC()
	m.states[state.UserID] = state
	return state, nil
}

// UpdatePlayerState applies the write when the caller holds the current
// version, mirroring the optimistic check of the Postgres store.
func (m *MemoryStateStore) UpdatePlayerState(_ context.Context, state store.PlayerState) (store.PlayerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.states[state.UserID]
	if !ok || existing.Version != state.Version {
		return store.PlayerState{}, store.ErrStateConflict
	}
	state.Version++
	state.UpdatedAt = time.Now().UTC()
	m.states[state.UserID] = state
	return state, nil
}

// MemoryQueueStore keeps queue entries per user, ordered by position.
type MemoryQueueStore struct {
	mu      sync.RWMutex
	entries map[int64][]store.QueueEntry
	nextID  int64
}

// NewMemoryQueueStore returns an empty queue store.
func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{entries: make(map[int64][]store.QueueEntry), nextID: 1}
}

// Queue returns a copy of the user's entries ordered by position.
func (m *MemoryQueueStore) Queue(_ context.Context, userID int64) ([]store.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneEntries(m.entries[userID]), nil
}

// ReplaceQueue swaps the user's whole queue for the given songs.
func (m *MemoryQueueStore) ReplaceQueue(_ context.Context, userID int64, songIDs []int64) ([]store.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	entries := make([]store.QueueEntry, 0, len(songIDs))
	for idx, songID := range songIDs {
		entries = append(entries, store.QueueEntry{
			ID:               m.nextID,
			UserID:           userID,
			SongID:           songID,
			Position:         idx + 1,
			OriginalPosition: idx + 1,
			AddedAt:          now,
		})
		m.nextID++
	}
	m.entries[userID] = entries
	return cloneEntries(entries), nil
}

// AppendToQueue adds a song at position N+1.
func (m *MemoryQueueStore) AppendToQueue(_ context.Context, userID, songID int64) (store.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	position := len(m.entries[userID]) + 1
	entry := store.QueueEntry{
		ID:               m.nextID,
		UserID:           userID,
		SongID:           songID,
		Position:         position,
		OriginalPosition: position,
		AddedAt:          time.Now().UTC(),
	}
	m.nextID++
	m.entries[userID] = append(m.entries[userID], entry)
	return entry, nil
}

// RemoveFromQueue drops the entry at a position and renumbers the rest.
func (m *MemoryQueueStore) RemoveFromQueue(_ context.Context, userID int64, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.entries[userID]
	kept := entries[:0]
	removed := false
	for _, entry := range entries {
		if entry.Position == position {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if removed {
		for i := range kept {
			if kept[i].Position > position {
				kept[i].Position--
			}
		}
	}
	m.entries[userID] = kept
	return nil
}

// SetQueueOrder rewrites positions for the given entries, matched by id.
func (m *MemoryQueueStore) SetQueueOrder(_ context.Context, userID int64, reordered []store.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := make(map[int64]store.QueueEntry, len(reordered))
	for _, entry := range reordered {
		byID[entry.ID] = entry
	}

	entries := m.entries[userID]
	for i, entry := range entries {
		if updated, ok := byID[entry.ID]; ok {
			entries[i].Position = updated.Position
			entries[i].OriginalPosition = updated.OriginalPosition
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	m.entries[userID] = entries
	return nil
}

// MemoryHistoryStore keeps last-played-at markers per (user, song).
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	records map[int64][]store.HistoryRecord
}

// NewMemoryHistoryStore returns an empty history store.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{records: make(map[int64][]store.HistoryRecord)}
}

// RecordPlay overwrites the marker for (user, song), never adding a second
// row for the same pair.
func (m *MemoryHistoryStore) RecordPlay(_ context.Context, userID, songID int64, playedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, record := range m.records[userID] {
		if record.SongID == songID {
			m.records[userID][i].PlayedAt = playedAt
			return nil
		}
	}
	m.records[userID] = append(m.records[userID], store.HistoryRecord{
		UserID:   userID,
		SongID:   songID,
		PlayedAt: playedAt,
	})
	return nil
}

// History returns the user's records ordered by played-at descending.
func (m *MemoryHistoryStore) History(_ context.Context, userID int64) ([]store.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]store.HistoryRecord, len(m.records[userID]))
	copy(records, m.records[userID])
	sort.Slice(records, func(i, j int) bool {
		if records[i].PlayedAt.Equal(records[j].PlayedAt) {
			return records[i].SongID > records[j].SongID
		}
		return records[i].PlayedAt.After(records[j].PlayedAt)
	})
	return records, nil
}

// MemoryCatalog is a map-backed song catalog.
type MemoryCatalog struct {
	mu    sync.RWMutex
	songs map[int64]store.Song
}

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{songs: make(map[int64]store.Song)}
}

// Add registers a song.
func (m *MemoryCatalog) Add(song store.Song) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.songs[song.ID] = song
}

// Song resolves a song id.
func (m *MemoryCatalog) Song(_ context.Context, id int64) (store.Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	song, ok := m.songs[id]
	if !ok {
		return store.Song{}, store.ErrSongNotFound
	}
	return song, nil
}

// SongsByIDs resolves the given ids, skipping missing ones.
func (m *MemoryCatalog) SongsByIDs(_ context.Context, ids []int64) ([]store.Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var songs []store.Song
	for _, id := range ids {
		if song, ok := m.songs[id]; ok {
			songs = append(songs, song)
		}
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	return songs, nil
}

// PublicSongsByGenre lists up to limit public songs of a genre, excluding
// the given ids, ordered by id.
func (m *MemoryCatalog) PublicSongsByGenre(_ context.Context, genre string, exclude []int64, limit int) ([]store.Song, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	excluded := make(map[int64]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	var songs []store.Song
	for _, song := range m.songs {
		if song.Visibility != store.VisibilityPublic || song.Genre != genre || excluded[song.ID] {
			continue
		}
		songs = append(songs, song)
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	if len(songs) > limit {
		songs = songs[:limit]
	}
	return songs, nil
}

// MemoryUsers is a map-backed user directory.
type MemoryUsers struct {
	mu  sync.RWMutex
	ids map[int64]bool
}

// NewMemoryUsers returns an empty directory.
func NewMemoryUsers(ids ...int64) *MemoryUsers {
	users := &MemoryUsers{ids: make(map[int64]bool)}
	for _, id := range ids {
		users.ids[id] = true
	}
	return users
}

// Add registers a user id.
func (m *MemoryUsers) Add(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = true
}

// UserExists reports whether the id is registered.
func (m *MemoryUsers) UserExists(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ids[id], nil
}

func cloneEntries(entries []store.QueueEntry) []store.QueueEntry {
	if len(entries) == 0 {
		return nil
	}
	clone := make([]store.QueueEntry, len(entries))
	copy(clone, entries)
	return clone
}
