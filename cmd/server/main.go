package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guessnumber/internal/config"
	"github.com/robalobadob/guessnumber/internal/httpserver"
	"github.com/robalobadob/guessnumber/internal/predictor"
	"github.com/robalobadob/guessnumber/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	st, err := openStore(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open history store")
	}
	defer st.Close()

	model, err := predictor.Initialize(context.Background(), st, cfg.AIOwnerID, cfg.Trainer())
	if errors.Is(err, predictor.ErrInsufficientData) {
		log.Warn().Err(err).Msg("AI player disabled, serving solo sessions only")
	} else if err != nil {
		log.Fatal().Err(err).Msg("train predictor")
	}

	srv := httpserver.New(st, model, httpserver.Options{
		JWTSecret:      cfg.JWTSecret,
		CookieName:     cfg.CookieName,
		AnonCookieName: cfg.AnonCookieName,
		ClientOrigin:   cfg.ClientOrigin,
		AIOwner:        cfg.AIOwnerID,
		Seed:           cfg.GameSeed,
		Secure:         cfg.SecureCookies(),
	})
	log.Info().Str("port", cfg.Port).Msg("starting guessnumber server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func openStore(path string) (store.Store, error) {
	if path == "" {
		return store.NewMemoryStore(), nil
	}
	return store.OpenSQLite(path)
}
