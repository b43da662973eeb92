package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"tunedeck/internal/logging"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logging.Setup(logging.Config{})
		log.Fatal().Err(err).Msg("load config")
	}

	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := openDatabase(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	handler, err := newHTTPHandler(cfg, db)
	if err != nil {
		log.Fatal().Err(err).Msg("wire services")
	}

	if err := bootstrapDemoData(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("bootstrap demo data")
	}

	log.Info().Str("addr", cfg.Addr).Msg("API listening")
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
