package configs

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	kerrors "github.com/PolarWolf314/zkgit/internal/errors"
)

// Defaults.
const (
	DefaultServerURL      = "https://localhost:8443"
	DefaultBridgePort     = 10101
	DefaultTimeoutSeconds = 30
)

// Environment overrides.
const (
	EnvServerURL  = "ZKGIT_SERVER_URL"
	EnvBridgePort = "ZKGIT_BRIDGE_PORT"
)

// Config is the user's zkgit configuration.
type Config struct {
	ServerURL      string `toml:"server_url" json:"server_url"`
	BridgePort     int    `toml:"bridge_port" json:"bridge_port"`
	ReposPath      string `toml:"repos_path" json:"repos_path"`
	TimeoutSeconds int    `toml:"timeout_seconds" json:"timeout_seconds"`
	ClientID       string `toml:"client_id" json:"client_id"`
}

// Timeout is the per-request network timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks every field.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: server_url %q must be an http(s) URL", kerrors.ErrInvalidInput, c.ServerURL)
	}
	if c.BridgePort < 0 || c.BridgePort > 65535 {
		return fmt.Errorf("%w: bridge_port %d is out of range", kerrors.ErrInvalidInput, c.BridgePort)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeout_seconds must be positive", kerrors.ErrInvalidInput)
	}
	if c.ReposPath == "" {
		return fmt.Errorf("%w: repos_path is empty", kerrors.ErrInvalidInput)
	}
	return nil
}

// Load reads the configuration at s.ConfigPath, fills in defaults for
// missing fields and applies environment overrides. A missing file yields
// the defaults.
func Load(s *Settings) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(s.ConfigPath); err == nil {
		if err := LoadTOML(s.ConfigPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}

	config.fillDefaults(s)

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes config to s.ConfigPath.
func Save(s *Settings, config *Config) error {
	if err := SaveTOML(s.ConfigPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Ensure loads the configuration and writes it back when the file is
// missing or has no client ID yet.
func Ensure(s *Settings) (*Config, error) {
	_, statErr := os.Stat(s.ConfigPath)

	config, err := Load(s)
	if err != nil {
		return nil, err
	}

	if os.IsNotExist(statErr) || config.ClientID == "" {
		if config.ClientID == "" {
			config.ClientID = GenerateClientID()
		}
		if err := Save(s, config); err != nil {
			return nil, err
		}
	}
	return config, nil
}

// GenerateClientID generates a new identifier for this installation.
func GenerateClientID() string {
	return uuid.New().String()
}

func (c *Config) fillDefaults(s *Settings) {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.BridgePort == 0 {
		c.BridgePort = DefaultBridgePort
	}
	if c.ReposPath == "" {
		c.ReposPath = s.DefaultReposPath()
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv(EnvBridgePort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port", kerrors.ErrInvalidInput, EnvBridgePort, v)
		}
		c.BridgePort = port
	}
	return nil
}
