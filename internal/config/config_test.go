package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.TokensFile != "token.txt" {
		t.Errorf("expected token.txt, got %s", cfg.TokensFile)
	}
	if cfg.Mode != ModeRotate {
		t.Errorf("expected rotate mode, got %s", cfg.Mode)
	}
	if cfg.RetryDelay != time.Minute {
		t.Errorf("expected 60s retry delay, got %v", cfg.RetryDelay)
	}
	if cfg.FriendsClaimInterval != 12*time.Hour {
		t.Errorf("expected 12h friends interval, got %v", cfg.FriendsClaimInterval)
	}
	if !cfg.RefreshEnabled {
		t.Error("refresh should be enabled by default")
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram should be disabled without token")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("MODE", " Restart ")
	t.Setenv("START_ACCOUNT", "2")
	t.Setenv("RETRY_DELAY", "5s")
	t.Setenv("GAME_BASE_URL", "http://localhost:9000/")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Mode != ModeRestart {
		t.Errorf("expected restart mode, got %s", cfg.Mode)
	}
	if cfg.StartAccount != 2 {
		t.Errorf("expected start account 2, got %d", cfg.StartAccount)
	}
	if cfg.RetryDelay != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.RetryDelay)
	}
	if cfg.GameBaseURL != "http://localhost:9000" {
		t.Errorf("trailing slash should be trimmed, got %s", cfg.GameBaseURL)
	}
	if !cfg.TelegramEnabled() {
		t.Error("telegram should be enabled")
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("MODE", "parallel")
	t.Setenv("START_ACCOUNT", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "MODE") || !strings.Contains(err.Error(), "START_ACCOUNT") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}
