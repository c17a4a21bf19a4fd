package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Farming modes
const (
	ModeRotate  = "rotate"
	ModeRestart = "restart"
)

type Config struct {
	// Accounts
	TokensFile   string `envconfig:"TOKENS_FILE" default:"token.txt"`
	Mode         string `envconfig:"MODE" default:"rotate"`
	StartAccount int    `envconfig:"START_ACCOUNT" default:"1"`

	// Capabilities
	RefreshEnabled       bool          `envconfig:"REFRESH_ENABLED" default:"true"`
	FriendsClaimEnabled  bool          `envconfig:"FRIENDS_CLAIM_ENABLED" default:"false"`
	FriendsClaimInterval time.Duration `envconfig:"FRIENDS_CLAIM_INTERVAL" default:"12h"`

	// Timing
	RetryDelay      time.Duration `envconfig:"RETRY_DELAY" default:"60s"`
	MinPollInterval time.Duration `envconfig:"MIN_POLL_INTERVAL" default:"10s"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	// Remote service
	GatewayBaseURL string `envconfig:"GATEWAY_BASE_URL" default:"https://gateway.blum.codes"`
	GameBaseURL    string `envconfig:"GAME_BASE_URL" default:"https://game-domain.blum.codes"`

	// Database
	DBPath string `envconfig:"DB_PATH" default:"./farmer.db"`

	// Telegram
	BotToken       string `envconfig:"BOT_TOKEN" default:""`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID" default:"0"`

	// Observability
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"INFO"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	cfg.GatewayBaseURL = strings.TrimSuffix(cfg.GatewayBaseURL, "/")
	cfg.GameBaseURL = strings.TrimSuffix(cfg.GameBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot check by itself
func (c *Config) Validate() error {
	var errs []error

	if c.Mode != ModeRotate && c.Mode != ModeRestart {
		errs = append(errs, fmt.Errorf("MODE must be %q or %q, got %q", ModeRotate, ModeRestart, c.Mode))
	}
	if c.StartAccount < 1 {
		errs = append(errs, fmt.Errorf("START_ACCOUNT must be >= 1, got %d", c.StartAccount))
	}
	if c.RetryDelay <= 0 {
		errs = append(errs, errors.New("RETRY_DELAY must be positive"))
	}
	if c.FriendsClaimInterval <= 0 {
		errs = append(errs, errors.New("FRIENDS_CLAIM_INTERVAL must be positive"))
	}
	if c.MinPollInterval < 0 {
		errs = append(errs, errors.New("MIN_POLL_INTERVAL must not be negative"))
	}

	return errors.Join(errs...)
}

// TelegramEnabled reports whether notifications can be delivered
func (c *Config) TelegramEnabled() bool {
	return c.BotToken != "" && c.TelegramChatID != 0
}
