package player

import "errors"

var (
	// ErrUserNotFound signals the acting user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrSongNotFound signals a referenced song does not exist.
	ErrSongNotFound = errors.New("song not found")
	// ErrSongForbidden signals a private song requested by a non-owner.
	ErrSongForbidden = errors.New("song is private")
	// ErrNoActivePlayback signals pause without active playback.
	ErrNoActivePlayback = errors.New("no active playback")
	// ErrNoPausedPlayback signals resume without paused playback.
	ErrNoPausedPlayback = errors.New("no paused playback")
	// ErrQueueEmpty signals navigation with nothing to navigate to.
	ErrQueueEmpty = errors.New("no more songs in queue")
	// ErrNoCurrentSong signals an operation that needs a loaded song.
	ErrNoCurrentSong = errors.New("no current song")
	// ErrInvalidSeek signals a negative seek offset.
	ErrInvalidSeek = errors.New("seek time must not be negative")
	// ErrInvalidVolume signals a volume outside [0,100].
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")
	// ErrInvalidRepeatMode signals an unrecognized repeat mode.
	ErrInvalidRepeatMode = errors.New("unknown repeat mode")
)
