package player

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"tunedeck/internal/store"
)

// DefaultVolume is the volume assigned when a player state is created lazily.
const DefaultVolume = 80

// StateStore persists per-user player state rows.
type StateStore interface {
	PlayerState(ctx context.Context, userID int64) (store.PlayerState, error)
	CreatePlayerState(ctx context.Context, state store.PlayerState) (store.PlayerState, error)
	UpdatePlayerState(ctx context.Context, state store.PlayerState) (store.PlayerState, error)
}

// QueueStore persists per-user queue entries. Positions handed back are
// always dense 1..N; mutations keep them that way.
type QueueStore interface {
	Queue(ctx context.Context, userID int64) ([]store.QueueEntry, error)
	ReplaceQueue(ctx context.Context, userID int64, songIDs []int64) ([]store.QueueEntry, error)
	AppendToQueue(ctx context.Context, userID, songID int64) (store.QueueEntry, error)
	RemoveFromQueue(ctx context.Context, userID int64, position int) error
	SetQueueOrder(ctx context.Context, userID int64, entries []store.QueueEntry) error
}

// HistoryStore receives the write-through for every operation that starts or
// changes the sounding song. It is a last-played-at map, not a play log.
type HistoryStore interface {
	RecordPlay(ctx context.Context, userID, songID int64, playedAt time.Time) error
}

// SongCatalog resolves song ids to immutable catalog metadata.
type SongCatalog interface {
	Song(ctx context.Context, id int64) (store.Song, error)
}

// UserDirectory answers user-existence lookups.
type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// NowPlaying bundles the updated state with the resolved song metadata.
type NowPlaying struct {
	State store.PlayerState `json:"state"`
	Song  store.Song        `json:"song"`
}

// QueueView is the ordered queue plus the index of the current song within
// it (-1 when nothing current, or the current song is not enqueued).
type QueueView struct {
	Entries      []store.QueueEntry `json:"entries"`
	CurrentIndex int                `json:"currentIndex"`
}

// Service is the per-user playback state machine. All operations for one
// user are serialized through a keyed mutex; the state store additionally
// rejects stale writes via its version column.
type Service struct {
	states  StateStore
	queue   QueueStore
	history HistoryStore
	catalog SongCatalog
	users   UserDirectory

	locks *userLocks
	now   func() time.Time
	rng   *rand.Rand
}

// New constructs the playback Service over the given collaborators.
func New(states StateStore, queue QueueStore, history HistoryStore, catalog SongCatalog, users UserDirectory) *Service {
	return &Service{
		states:  states,
		queue:   queue,
		history: history,
		catalog: catalog,
		users:   users,
		locks:   newUserLocks(),
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Play loads a song as current and starts playback. A non-nil songQueue
// replaces the user's entire queue with the given songs at positions 1..N.
// Private songs play only for their owner.
func (s *Service) Play(ctx context.Context, userID, songID int64, songQueue []int64) (NowPlaying, error) {
	defer s.locks.lock(userID)()

	if err := s.ensureUser(ctx, userID); err != nil {
		return NowPlaying{}, err
	}

	song, err := s.lookupSong(ctx, songID)
	if err != nil {
		return NowPlaying{}, err
	}
	if song.Visibility == store.VisibilityPrivate && (song.OwnerID == nil || *song.OwnerID != userID) {
		return NowPlaying{}, ErrSongForbidden
	}

	if songQueue != nil {
		for _, id := range songQueue {
			if _, err := s.lookupSong(ctx, id); err != nil {
				return NowPlaying{}, err
			}
		}
		if _, err := s.queue.ReplaceQueue(ctx, userID, songQueue); err != nil {
			return NowPlaying{}, err
		}
	}

	state, err := s.loadState(ctx, userID)
	if err != nil {
		return NowPlaying{}, err
	}
	state.CurrentSongID = &song.ID
	state.IsPlaying = true
	state.IsPaused = false
	state.PlaybackTime = 0

	state, err = s.states.UpdatePlayerState(ctx, state)
	if err != nil {
		return NowPlaying{}, err
	}
	if err := s.history.RecordPlay(ctx, userID, song.ID, s.now()); err != nil {
		return NowPlaying{}, err
	}

	return NowPlaying{State: state, Song: song}, nil
}

// Pause suspends active playback.
func (s *Service) Pause(ctx context.Context, userID int64) (store.PlayerState, error) {
	defer s.locks.lock(userID)()

	state, err := s.userState(ctx, userID)
	if err != nil {
		return store.PlayerState{}, err
	}
	if !state.IsPlaying {
		return store.PlayerState{}, ErrNoActivePlayback
	}
	state.IsPlaying = false
	state.IsPaused = true
	return s.states.UpdatePlayerState(ctx, state)
}

// Resume continues paused playback.
func (s *Service) Resume(ctx context.Context, userID int64) (store.PlayerState, error) {
	defer s.locks.lock(userID)()

	state, err := s.userState(ctx, userID)
	if err != nil {
		return store.PlayerState{}, err
	}
	if !state.IsPaused {
		return store.PlayerState{}, ErrNoPausedPlayback
	}
	state.IsPlaying = true
	state.IsPaused = false
	return s.states.UpdatePlayerState(ctx, state)
}

// Stop unconditionally clears the current song and resets playback. Volume,
// shuffle and repeat settings survive a stop.
func (s *Service) Stop(ctx context.Context, userID int64) (store.PlayerState, error) {
	defer s.locks.lock(userID)()

	state, err := s.userState(ctx, userID)
	if err != nil {
		return store.PlayerState{}, err
	}
	state.CurrentSongID = nil
	state.IsPlaying = false
	state.IsPaused = false
	state.PlaybackTime = 0
	return s.states.UpdatePlayerState(ctx, state)
}

// Seek sets the playback offset. Offsets past the end of the track are
// stored verbatim; no clamping against song duration is performed.
func (s *Service) Seek(ctx context.Context, userID int64, seconds int) (store.PlayerState, error) {
	defer s.locks.lock(userID)()

	if seconds < 0 {
		return store.PlayerState{}, fmt.Errorf("%w: %d", ErrInvalidSeek, seconds)
	}
	state, err := s.userState(ctx, userID)
	if err != nil {
		return store.PlayerState{}, err
	}
	state.PlaybackTime = seconds
	return s.states.UpdatePlayerState(ctx, state)
}

// SetVolume stores a volume in [0,100] verbatim.
func (s *Service) SetVolume(ctx context.Context, userID int64, volume int) (store.PlayerState, error) {
	defer s.locks.lock(userID)()

	if volume < 0 || volume > 100 {
		return store.PlayerState{}, fmt.Errorf("%w: %d", ErrInvalidVolume, volume)
	}
	state, err := s.userState(ctx, userID)
	if err != nil {
		return store.PlayerState{}, err
	}
	state.Volume = volume
	return s.states.UpdatePlayerState(ctx, state)
}

// SetRepeatMode stores one of NONE, ONE, ALL.
func (s *Service) SetRepeatMode(ctx context.Context, userID int64, mode store.RepeatMode) (store.PlayerState, error) {
	defer s.locks.lock(userID)()

	switch mode {
	case store.RepeatNone, store.RepeatOne, store.RepeatAll:
	default:
		return store.PlayerState{}, fmt.Errorf("%w: %q", ErrInvalidRepeatMode, mode)
	}
	state, err := s.userState(ctx, userID)
	if err != nil {
		return store.PlayerState{}, err
	}
	state.RepeatMode = mode
	return s.states.UpdatePlayerState(ctx, state)
}

// SetShuffle toggles shuffling and reorders the queue.
//
// Enabling snapshots every entry's original position, pins the entry for the
// current song at position 1 and randomly permutes the rest across 2..N, so
// a following Next proceeds from "now playing". Disabling restores every
// entry to its stored original position. With an empty queue or no current
// song, enabling only flips the flag.
func (s *Service) SetShuffle(ctx context.Context, userID int64, enabled bool) (store.PlayerState, []store.QueueEntry, error) {
	defer s.locks.lock(userID)()

	state, err := s.userState(ctx, userID)
	if err != nil {
		return store.PlayerState{}, nil, err
	}

	entries, err := s.queue.Queue(ctx, userID)
	if err != nil {
		return store.PlayerState{}, nil, err
	}

	if enabled && len(entries) > 0 && state.CurrentSongID != nil {
		entries = s.shuffleEntries(entries, *state.CurrentSongID)
		if err := s.queue.SetQueueOrder(ctx, userID, entries); err != nil {
			return store.PlayerState{}, nil, err
		}
	} else if !enabled && len(entries) > 0 {
		for i := range entries {
			entries[i].Position = entries[i].OriginalPosition
		}
		if err := s.queue.SetQueueOrder(ctx, userID, entries); err != nil {
			return store.PlayerState{}, nil, err
		}
		sortByPosition(entries)
	}

	state.ShuffleEnabled = enabled
	state, err = s.states.UpdatePlayerState(ctx, state)
	if err != nil {
		return store.PlayerState{}, nil, err
	}
	return state, entries, nil
}

// shuffleEntries snapshots original positions, pins the current song first
// and permutes the remainder. A current song that is not enqueued pins
// nothing; the whole queue is permuted.
func (s *Service) shuffleEntries(entries []store.QueueEntry, currentSongID int64) []store.QueueEntry {
	for i := range entries {
		entries[i].OriginalPosition = entries[i].Position
	}

	pinned := -1
	for i, entry := range entries {
		if entry.SongID == currentSongID {
			pinned = i
			break
		}
	}

	var reordered []store.QueueEntry
	var rest []store.QueueEntry
	if pinned >= 0 {
		reordered = append(reordered, entries[pinned])
		rest = append(rest, entries[:pinned]...)
		rest = append(rest, entries[pinned+1:]...)
	} else {
		rest = append(rest, entries...)
	}

	s.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
	reordered = append(reordered, rest...)
	for i := range reordered {
		reordered[i].Position = i + 1
	}
	return reordered
}

// Next advances to the following queue entry.
//
// Under repeat ONE the current song simply restarts: the playback offset is
// reset, the queue is untouched and no history write happens. Otherwise the
// queue is walked from the current song (a missing or unlisted current song
// starts before the first entry), wrapping only under repeat ALL.
func (s *Service) Next(ctx context.Context, userID int64) (NowPlaying, error) {
	defer s.locks.lock(userID)()

	state, err := s.userState(ctx, userID)
	if err != nil {
		return NowPlaying{}, err
	}

	if state.RepeatMode == store.RepeatOne {
		if state.CurrentSongID == nil {
			return NowPlaying{}, ErrNoCurrentSong
		}
		song, err := s.lookupSong(ctx, *state.CurrentSongID)
		if err != nil {
			return NowPlaying{}, err
		}
		state.PlaybackTime = 0
		state, err = s.states.UpdatePlayerState(ctx, state)
		if err != nil {
			return NowPlaying{}, err
		}
		return NowPlaying{State: state, Song: song}, nil
	}

	entries, err := s.queue.Queue(ctx, userID)
	if err != nil {
		return NowPlaying{}, err
	}
	if len(entries) == 0 {
		return NowPlaying{}, ErrQueueEmpty
	}

	nextIndex := indexOfSong(entries, state.CurrentSongID) + 1
	if nextIndex >= len(entries) {
		if state.RepeatMode != store.RepeatAll {
			return NowPlaying{}, ErrQueueEmpty
		}
		nextIndex = 0
	}

	return s.moveTo(ctx, state, entries[nextIndex])
}

// Previous steps back to the preceding queue entry, wrapping only under
// repeat ALL. Unlike Next it has no repeat-ONE branch and requires a current
// song; calling it with nothing loaded fails with ErrNoCurrentSong.
func (s *Service) Previous(ctx context.Context, userID int64) (NowPlaying, error) {
	defer s.locks.lock(userID)()

	state, err := s.userState(ctx, userID)
	if err != nil {
		return NowPlaying{}, err
	}
	if state.CurrentSongID == nil {
		return NowPlaying{}, ErrNoCurrentSong
	}

	entries, err := s.queue.Queue(ctx, userID)
	if err != nil {
		return NowPlaying{}, err
	}
	if len(entries) == 0 {
		return NowPlaying{}, ErrQueueEmpty
	}

	previousIndex := indexOfSong(entries, state.CurrentSongID) - 1
	if previousIndex < 0 {
		if state.RepeatMode != store.RepeatAll {
			return NowPlaying{}, ErrQueueEmpty
		}
		previousIndex = len(entries) - 1
	}

	return s.moveTo(ctx, state, entries[previousIndex])
}

// moveTo makes the given entry current and writes through to history.
func (s *Service) moveTo(ctx context.Context, state store.PlayerState, entry store.QueueEntry) (NowPlaying, error) {
	song, err := s.lookupSong(ctx, entry.SongID)
	if err != nil {
		return NowPlaying{}, err
	}

	state.CurrentSongID = &entry.SongID
	state.PlaybackTime = 0
	state, err = s.states.UpdatePlayerState(ctx, state)
	if err != nil {
		return NowPlaying{}, err
	}
	if err := s.history.RecordPlay(ctx, state.UserID, entry.SongID, s.now()); err != nil {
		return NowPlaying{}, err
	}
	return NowPlaying{State: state, Song: song}, nil
}

// AddToQueue appends a song at the tail of the queue. The entry's original
// position equals its assigned position even while shuffled.
func (s *Service) AddToQueue(ctx context.Context, userID, songID int64) (store.QueueEntry, error) {
	defer s.locks.lock(userID)()

	if err := s.ensureUser(ctx, userID); err != nil {
		return store.QueueEntry{}, err
	}
	if _, err := s.lookupSong(ctx, songID); err != nil {
		return store.QueueEntry{}, err
	}
	return s.queue.AppendToQueue(ctx, userID, songID)
}

// RemoveFromQueue deletes the entry at the given position and renumbers the
// remainder. An absent position is a no-op.
func (s *Service) RemoveFromQueue(ctx context.Context, userID int64, position int) error {
	defer s.locks.lock(userID)()

	if err := s.ensureUser(ctx, userID); err != nil {
		return err
	}
	return s.queue.RemoveFromQueue(ctx, userID, position)
}

// Queue returns the ordered queue and the index of the current song in it.
func (s *Service) Queue(ctx context.Context, userID int64) (QueueView, error) {
	defer s.locks.lock(userID)()

	if err := s.ensureUser(ctx, userID); err != nil {
		return QueueView{}, err
	}

	entries, err := s.queue.Queue(ctx, userID)
	if err != nil {
		return QueueView{}, err
	}

	view := QueueView{Entries: entries, CurrentIndex: -1}
	state, err := s.states.PlayerState(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrPlayerStateNotFound) {
			return view, nil
		}
		return QueueView{}, err
	}
	view.CurrentIndex = indexOfSong(entries, state.CurrentSongID)
	return view, nil
}

// State returns the user's player state, creating the default one on first
// use.
func (s *Service) State(ctx context.Context, userID int64) (store.PlayerState, error) {
	defer s.locks.lock(userID)()

	return s.userState(ctx, userID)
}

// userState verifies the user and loads (or lazily creates) their state.
func (s *Service) userState(ctx context.Context, userID int64) (store.PlayerState, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return store.PlayerState{}, err
	}
	return s.loadState(ctx, userID)
}

// loadState is get-or-create: the default state is stopped, volume 80,
// repeat NONE, shuffle off.
func (s *Service) loadState(ctx context.Context, userID int64) (store.PlayerState, error) {
	state, err := s.states.PlayerState(ctx, userID)
	if errors.Is(err, store.ErrPlayerStateNotFound) {
		return s.states.CreatePlayerState(ctx, store.PlayerState{
			UserID:     userID,
			Volume:     DefaultVolume,
			RepeatMode: store.RepeatNone,
		})
	}
	return state, err
}

func (s *Service) ensureUser(ctx context.Context, userID int64) error {
	ok, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup user %d: %w", userID, err)
	}
	if !ok {
		return fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	return nil
}

func (s *Service) lookupSong(ctx context.Context, id int64) (store.Song, error) {
	song, err := s.catalog.Song(ctx, id)
	if errors.Is(err, store.ErrSongNotFound) {
		return store.Song{}, fmt.Errorf("song %d: %w", id, ErrSongNotFound)
	}
	if err != nil {
		return store.Song{}, fmt.Errorf("lookup song %d: %w", id, err)
	}
	return song, nil
}

// indexOfSong locates the current song within the queue, or -1 when nothing
// is current or the song is not enqueued.
func indexOfSong(entries []store.QueueEntry, songID *int64) int {
	if songID == nil {
		return -1
	}
	for i, entry := range entries {
		if entry.SongID == *songID {
			return i
		}
	}
	return -1
}

func sortByPosition(entries []store.QueueEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
}
