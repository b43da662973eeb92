package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tunedeck/internal/store"
)

// bootstrapDemoData seeds an idempotent demo user and a handful of public
// songs so the player has something to queue on a fresh database.
func bootstrapDemoData(ctx context.Context, db *sql.DB) error {
	dataStore := store.New(db)

	if _, err := dataStore.CreateUser(ctx, "demo", "demo123"); err != nil && !errors.Is(err, store.ErrUserExists) {
		return fmt.Errorf("bootstrap demo user: %w", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM songs
	`).Scan(&count); err != nil {
		return fmt.Errorf("count songs: %w", err)
	}
	if count > 0 {
		return nil
	}

	demoSongs := []store.Song{
		{Title: "Sunrise Echoes", Artist: "Luna Rivers", Genre: "Ambient", Duration: 212},
		{Title: "Golden Hour Groove", Artist: "The Vinyl Set", Genre: "Indie", Duration: 248},
		{Title: "Neon Reflections", Artist: "City Ghosts", Genre: "Synthwave", Duration: 265},
		{Title: "Echo Chamber", Artist: "Glass Waves", Genre: "Electronic", Duration: 233},
		{Title: "Blue Midnight", Artist: "Ella Brooks", Genre: "Jazz", Duration: 241},
		{Title: "Starfield", Artist: "Atlas Drift", Genre: "Ambient", Duration: 279},
	}
	for _, song := range demoSongs {
		if _, err := dataStore.CreateSong(ctx, song); err != nil {
			return fmt.Errorf("bootstrap demo song %q: %w", song.Title, err)
		}
	}

	return nil
}
