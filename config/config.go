package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all client configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Client  ClientConfig  `yaml:"client" toml:"client"`
	Restart RestartConfig `yaml:"restart" toml:"restart"`
	Logging LogConfig     `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the build server address and credentials.
type ServerConfig struct {
	URL      string `envconfig:"JENKINS_URL" yaml:"url" toml:"url"`
	Username string `envconfig:"JENKINS_USERNAME" yaml:"username" toml:"username"`
	Password string `envconfig:"JENKINS_PASSWORD" yaml:"password" toml:"password"`
}

// ClientConfig holds HTTP transport settings.
type ClientConfig struct {
	Shared             bool     `envconfig:"JENKINS_SHARED_CLIENT" default:"false" yaml:"shared" toml:"shared"`
	Timeout            Duration `envconfig:"JENKINS_TIMEOUT" default:"30s" yaml:"timeout" toml:"timeout"`
	RateLimit          float64  `envconfig:"JENKINS_RATE_LIMIT" default:"0" yaml:"rate_limit" toml:"rate_limit"`
	InsecureSkipVerify bool     `envconfig:"JENKINS_INSECURE_SKIP_VERIFY" default:"false" yaml:"insecure_skip_verify" toml:"insecure_skip_verify"`
}

// RestartConfig holds the restart verification schedule.
type RestartConfig struct {
	PollInterval Duration `envconfig:"JENKINS_RESTART_POLL_INTERVAL" default:"3s" yaml:"poll_interval" toml:"poll_interval"`
	PollTimeout  Duration `envconfig:"JENKINS_RESTART_POLL_TIMEOUT" default:"60s" yaml:"poll_timeout" toml:"poll_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// Duration is a time.Duration written as "3s" in env vars and files
type Duration time.Duration

// Std returns d as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalText parses a Go duration string
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats d as a Go duration string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile loads a .yaml, .yml or .toml file. Settings missing from the
// file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			Timeout: Duration(30 * time.Second),
		},
		Restart: RestartConfig{
			PollInterval: Duration(3 * time.Second),
			PollTimeout:  Duration(60 * time.Second),
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// Validate reports settings a Manager cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Server.URL == "" {
		errs = append(errs, errors.New("server URL is required"))
	}
	if c.Restart.PollInterval <= 0 {
		errs = append(errs, errors.New("restart poll interval must be positive"))
	}
	if c.Restart.PollTimeout < c.Restart.PollInterval {
		errs = append(errs, errors.New("restart poll timeout must not be shorter than the poll interval"))
	}
	if c.Client.RateLimit < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	return errors.Join(errs...)
}
