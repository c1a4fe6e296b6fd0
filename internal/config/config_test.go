package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SecureCookies() || cfg.PlayMode != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Port != "5175" || cfg.AIOwnerID != "ai.player@game.com" || cfg.DatabasePath != "data/guessnumber.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	tr := cfg.Trainer()
	if tr.Trees != 100 || tr.Seed != 42 || tr.MinExamples != 10 || tr.Holdout != 0.2 {
		t.Fatalf("trainer: %+v", tr)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PREDICTOR_TREES", "7")
	t.Setenv("GAME_SEED", "1234")
	t.Setenv("PLAYER_ID", "alice")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PredictorTrees != 7 || cfg.GameSeed != 1234 || cfg.PlayerID != "alice" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"PREDICTOR_TREES":   "0",
		"PREDICTOR_HOLDOUT": "0.7",
		"GAME_SEED":         "abc",
		"PLAY_MODE":         "versus",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s accepted", k, v)
			}
		})
	}
}

func TestProductionEnablesSecureCookies(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PLAY_MODE", "duel")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.SecureCookies() || cfg.PlayMode != "duel" {
		t.Fatalf("production config: %+v", cfg)
	}
}
