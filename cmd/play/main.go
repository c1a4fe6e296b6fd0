package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guessnumber/internal/ai"
	"github.com/robalobadob/guessnumber/internal/cli"
	"github.com/robalobadob/guessnumber/internal/config"
	"github.com/robalobadob/guessnumber/internal/game"
	"github.com/robalobadob/guessnumber/internal/predictor"
	"github.com/robalobadob/guessnumber/internal/store"
)

func main() {
	// Prompts own stdout; logs go to stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	var st store.Store = store.NewMemoryStore()
	if cfg.DatabasePath != "" {
		if st, err = store.OpenSQLite(cfg.DatabasePath); err != nil {
			log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("open history store")
		}
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var guesser game.Guesser
	if cfg.PlayMode != "solo" {
		model, err := predictor.Initialize(ctx, st, cfg.AIOwnerID, cfg.Trainer())
		switch {
		case errors.Is(err, predictor.ErrInsufficientData) && cfg.PlayMode == "duel":
			log.Warn().Err(err).Msg("no trained model, AI opponent uses bisection")
			guesser = ai.New(nil)
		case errors.Is(err, predictor.ErrInsufficientData):
			log.Warn().Err(err).Msg("no AI opponent yet, playing solo")
		case err != nil:
			log.Fatal().Err(err).Msg("train predictor")
		default:
			guesser = ai.New(model)
		}
	}

	seed := cfg.GameSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	p := &cli.Player{
		In:       os.Stdin,
		Out:      os.Stdout,
		Recorder: st,
		Guesser:  guesser,
		Owner:    cfg.PlayerID,
		AIOwner:  cfg.AIOwnerID,
		Rand:     rand.New(rand.NewSource(seed)),
	}
	if err := p.Run(ctx); err != nil {
		log.Error().Err(err).Msg("session failed")
		os.Exit(1)
	}
}
