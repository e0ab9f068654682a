package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coredatabase "github.com/ekoyudhi/kamusbot/core/database"
	corelogger "github.com/ekoyudhi/kamusbot/core/logger"
)

// LineConfig holds LINE Messaging API channel settings.
type LineConfig struct {
	ChannelSecret string `yaml:"channel_secret" envconfig:"LINE_CHANNEL_SECRET"`
	ChannelToken  string `yaml:"channel_token" envconfig:"LINE_CHANNEL_ACCESS_TOKEN"`
}

// KBBIConfig holds dictionary provider settings. Credentials are optional;
// without them lookups run as an anonymous session.
type KBBIConfig struct {
	Username string `yaml:"username" envconfig:"USERNAME_KBBI"`
	Password string `yaml:"password" envconfig:"PASSWORD_KBBI"`
	BaseURL  string `yaml:"base_url" envconfig:"KBBI_BASE_URL"`
	// LookupTimeout bounds a single dictionary lookup; on timeout the
	// gateway reports not-found.
	LookupTimeout time.Duration `yaml:"lookup_timeout" envconfig:"KBBI_LOOKUP_TIMEOUT"`
}

// ServerConfig specifies the webhook listener.
type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"SERVER_LISTEN"`
	Port   int    `yaml:"port" envconfig:"SERVER_PORT"`
}

// DialogConfig bounds the conversation engine's dependent calls.
type DialogConfig struct {
	StoreTimeout time.Duration `yaml:"store_timeout" envconfig:"DIALOG_STORE_TIMEOUT"`
}

// Config aggregates all settings for the bot process.
type Config struct {
	Line     LineConfig          `yaml:"line"`
	KBBI     KBBIConfig          `yaml:"kbbi"`
	Server   ServerConfig        `yaml:"server"`
	Dialog   DialogConfig        `yaml:"dialog"`
	Database coredatabase.Config `yaml:"database"`
	Logging  corelogger.Config   `yaml:"logging"`
}

const (
	defaultPort          = 8000
	defaultBaseURL       = "https://kbbi.kemdikbud.go.id"
	defaultLookupTimeout = 10 * time.Second
	defaultStoreTimeout  = 3 * time.Second
)

// Load reads configuration from a YAML file and environment variables.
// The file is optional: when path is empty or missing, environment variables
// alone must supply the mandatory values.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Line.ChannelSecret) == "" {
		return fmt.Errorf("line.channel_secret is required")
	}
	if strings.TrimSpace(cfg.Line.ChannelToken) == "" {
		return fmt.Errorf("line.channel_token is required")
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultPort
	}
	if cfg.Server.Port < 0 {
		return fmt.Errorf("server.port must be > 0")
	}

	if strings.TrimSpace(cfg.KBBI.BaseURL) == "" {
		cfg.KBBI.BaseURL = defaultBaseURL
	}
	cfg.KBBI.BaseURL = strings.TrimRight(cfg.KBBI.BaseURL, "/")
	if cfg.KBBI.LookupTimeout <= 0 {
		cfg.KBBI.LookupTimeout = defaultLookupTimeout
	}
	if cfg.Dialog.StoreTimeout <= 0 {
		cfg.Dialog.StoreTimeout = defaultStoreTimeout
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 5
	}

	return nil
}
