package main

import (
	"database/sql"
	"net/http"
	"time"

	"tunedeck/internal/accounts"
	"tunedeck/internal/auth"
	"tunedeck/internal/http/middleware"
	"tunedeck/internal/httpapi"
	"tunedeck/internal/player"
	"tunedeck/internal/recommend"
	"tunedeck/internal/store"
)

const sessionTTL = 24 * time.Hour

// newHTTPHandler wires the store-backed services into the HTTP server with
// the middleware chain applied.
func newHTTPHandler(cfg Config, db *sql.DB) (http.Handler, error) {
	dataStore := store.New(db)

	tokens, err := auth.New(cfg.JWTSecret, sessionTTL)
	if err != nil {
		return nil, err
	}

	accountService := accounts.New(dataStore, tokens)
	playerService := player.New(dataStore, dataStore, dataStore, dataStore, dataStore)
	recommendService := recommend.New(dataStore, dataStore, dataStore)

	server := httpapi.New(accountService, playerService, recommendService, tokens)

	handler := middleware.Recovery()(server.Routes())
	handler = middleware.RequestLogging()(handler)
	handler = middleware.CORS(cfg.AllowedOrigin)(handler)
	return handler, nil
}
