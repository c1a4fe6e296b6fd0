package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/robalobadob/guessnumber/internal/predictor"
)

type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"` // "production" enables Secure cookies

	// HTTP
	Port           string `env:"PORT" envDefault:"5175"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"guess_token"`
	AnonCookieName string `env:"ANON_COOKIE_NAME" envDefault:"guess_anon"`

	// Storage; empty keeps history in memory only
	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/guessnumber.db"`

	// Players
	AIOwnerID string `env:"AI_OWNER_ID" envDefault:"ai.player@game.com"`
	PlayerID  string `env:"PLAYER_ID" envDefault:"local"`
	GameSeed  int64  `env:"GAME_SEED"`
	PlayMode  string `env:"PLAY_MODE"` // terminal: "solo", "duel", or empty for duel only with a trained model

	// Predictor
	PredictorTrees       int     `env:"PREDICTOR_TREES" envDefault:"100"`
	PredictorSeed        int64   `env:"PREDICTOR_SEED" envDefault:"42"`
	PredictorMaxDepth    int     `env:"PREDICTOR_MAX_DEPTH" envDefault:"12"`
	PredictorMinLeaf     int     `env:"PREDICTOR_MIN_LEAF" envDefault:"2"`
	PredictorMinExamples int     `env:"PREDICTOR_MIN_EXAMPLES" envDefault:"10"`
	PredictorHoldout     float64 `env:"PREDICTOR_HOLDOUT" envDefault:"0.2"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.PredictorTrees < 1:
		return errors.New("config: PREDICTOR_TREES must be at least 1")
	case c.PredictorMaxDepth < 1:
		return errors.New("config: PREDICTOR_MAX_DEPTH must be at least 1")
	case c.PredictorMinLeaf < 1:
		return errors.New("config: PREDICTOR_MIN_LEAF must be at least 1")
	case c.PredictorMinExamples < 1:
		return errors.New("config: PREDICTOR_MIN_EXAMPLES must be at least 1")
	case c.PredictorHoldout < 0 || c.PredictorHoldout >= 0.5:
		return errors.New("config: PREDICTOR_HOLDOUT must be in [0, 0.5)")
	case c.AIOwnerID == "":
		return errors.New("config: AI_OWNER_ID must not be empty")
	case c.PlayMode != "" && c.PlayMode != "solo" && c.PlayMode != "duel":
		return fmt.Errorf("config: PLAY_MODE %q must be solo or duel", c.PlayMode)
	}
	return nil
}

// SecureCookies reports whether cookies need Secure and SameSite=None.
func (c *Config) SecureCookies() bool { return c.AppEnv == "production" }

// Trainer builds predictor hyper-parameters from the config.
func (c *Config) Trainer() predictor.Trainer {
	return predictor.Trainer{
		Trees:       c.PredictorTrees,
		Seed:        c.PredictorSeed,
		MaxDepth:    c.PredictorMaxDepth,
		MinLeaf:     c.PredictorMinLeaf,
		MinExamples: c.PredictorMinExamples,
		Holdout:     c.PredictorHoldout,
	}
}
