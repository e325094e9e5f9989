// Package config loads the fluxo.yaml file used by the fluxo command.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/fluxo/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "fluxo.yaml"

// Config is the root of fluxo.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Flows   FlowsConfig   `yaml:"flows" json:"flows"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Engine  EngineConfig  `yaml:"engine" json:"engine"`
	Relay   RelayConfig   `yaml:"relay" json:"relay"`
	Privacy PrivacyConfig `yaml:"privacy" json:"privacy"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// FlowsConfig points at the loam directory holding flow documents.
type FlowsConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// RedisConfig enables the Redis adapters when Addr is set.
type RedisConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Password     string        `yaml:"password" json:"password"`
	DB           int           `yaml:"db" json:"db"`
	Prefix       string        `yaml:"prefix" json:"prefix"`
	ExecutionTTL time.Duration `yaml:"execution_ttl" json:"execution_ttl"`
	MaxLogLength int64         `yaml:"max_log_length" json:"max_log_length"`
}

type EngineConfig struct {
	MaxAutoSteps   int           `yaml:"max_auto_steps" json:"max_auto_steps"`
	LockTTL        time.Duration `yaml:"lock_ttl" json:"lock_ttl"`
	PollInterval   time.Duration `yaml:"poll_interval" json:"poll_interval"`
	WebhookTimeout time.Duration `yaml:"webhook_timeout" json:"webhook_timeout"`
}

// RelayConfig holds the endpoints of the HTTP collaborators used in serve mode.
// An empty URL leaves the collaborator unconfigured.
type RelayConfig struct {
	MessagingURL string        `yaml:"messaging_url" json:"messaging_url"`
	AIURL        string        `yaml:"ai_url" json:"ai_url"`
	AgentURL     string        `yaml:"agent_url" json:"agent_url"`
	Token        string        `yaml:"token" json:"token"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

type PrivacyConfig struct {
	// MaskPatterns are regular expressions masked in the conversation log.
	MaskPatterns []string `yaml:"mask_patterns" json:"mask_patterns"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Flows: FlowsConfig{Dir: "flows"},
		Redis: RedisConfig{Prefix: "fluxo:"},
		Engine: EngineConfig{
			MaxAutoSteps:   100,
			LockTTL:        30 * time.Second,
			PollInterval:   time.Second,
			WebhookTimeout: 10 * time.Second,
		},
		Relay: RelayConfig{Timeout: 10 * time.Second},
	}
}

// Load reads a YAML or JSON config file over the defaults.
// A missing file is not an error unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Engine.MaxAutoSteps <= 0 {
		errs = append(errs, errors.New("engine.max_auto_steps must be positive"))
	}
	if c.Engine.PollInterval <= 0 {
		errs = append(errs, errors.New("engine.poll_interval must be positive"))
	}
	if c.Redis.ExecutionTTL < 0 {
		errs = append(errs, errors.New("redis.execution_ttl must not be negative"))
	}
	for _, p := range c.Privacy.MaskPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("privacy.mask_patterns: %w", err))
		}
	}
	return errors.Join(errs...)
}
