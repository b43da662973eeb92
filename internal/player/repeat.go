package player

import (
	"fmt"
	"strings"

	"tunedeck/internal/store"
)

// ParseRepeatMode maps boundary input onto the closed repeat-mode set.
// Empty input means NONE; anything outside {NONE, ONE, ALL} is rejected.
func ParseRepeatMode(raw string) (store.RepeatMode, error) {
	switch store.RepeatMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case "":
		return store.RepeatNone, nil
	case store.RepeatNone:
		return store.RepeatNone, nil
	case store.RepeatOne:
		return store.RepeatOne, nil
	case store.RepeatAll:
		return store.RepeatAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRepeatMode, raw)
	}
}

// RepeatModeLabel returns the human label for a repeat mode.
func RepeatModeLabel(mode store.RepeatMode) string {
	switch mode {
	case store.RepeatOne:
		return "repeat current song"
	case store.RepeatAll:
		return "repeat whole queue"
	default:
		return "no repeat"
	}
}
