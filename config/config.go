package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-cloud/logging"
)

// Config is the root configuration structure for Gray Logic Cloud.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Cloud     CloudConfig     `yaml:"cloud"`
	LocalHub  LocalHubConfig  `yaml:"local_hub"`
	Stream    StreamConfig    `yaml:"stream"`
	Keepalive KeepaliveConfig `yaml:"keepalive"`
	Store     StoreConfig     `yaml:"store"`
	Logging   logging.Config  `yaml:"logging"`
}

// CloudConfig contains cloud API credentials and region selection.
type CloudConfig struct {
	// ClientID and ClientSecret are the OAuth2 client-credentials pair
	// issued by the platform for this integration.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Region selects the API endpoint: "US" (default) or "EU".
	// Devices may still be bound to the other region by their metadata.
	Region string `yaml:"region"`
}

// LocalHubConfig contains settings for the local-hub variant.
// When Host is empty, the cloud endpoints are used.
type LocalHubConfig struct {
	Host         string `yaml:"host"`
	NetID        string `yaml:"net_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// StreamConfig contains message-broker subscription settings.
type StreamConfig struct {
	// ReconnectDelay is the fixed wait in seconds between reconnection
	// attempts after a transport failure. Clamped to [5, 30].
	ReconnectDelay int `yaml:"reconnect_delay"`

	QoS int `yaml:"qos"`
}

// KeepaliveConfig overrides the per-class keepalive intervals in seconds.
// Zero values keep the built-in vendor calibration defaults.
type KeepaliveConfig struct {
	Sensor     int `yaml:"sensor"`
	Controller int `yaml:"controller"`
	Hub        int `yaml:"hub"`
}

// StoreConfig contains settings for the SQLite last-report state store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file, applies defaults,
// environment overrides and validation.
//
// Environment variables follow the pattern GRAYLOGIC_CLOUD_SECTION_KEY,
// for example GRAYLOGIC_CLOUD_CLIENT_SECRET.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Cloud: CloudConfig{
			Region: "US",
		},
		Stream: StreamConfig{
			ReconnectDelay: 5,
			QoS:            0,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    "./data/graylogic-cloud.db",
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYLOGIC_CLOUD_CLIENT_ID"); v != "" {
		cfg.Cloud.ClientID = v
	}
	if v := os.Getenv("GRAYLOGIC_CLOUD_CLIENT_SECRET"); v != "" {
		cfg.Cloud.ClientSecret = v
	}
	if v := os.Getenv("GRAYLOGIC_CLOUD_REGION"); v != "" {
		cfg.Cloud.Region = v
	}
	if v := os.Getenv("GRAYLOGIC_CLOUD_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	local := c.LocalHub.Host != ""
	if local {
		if c.LocalHub.NetID == "" {
			errs = append(errs, "local_hub.net_id is required when local_hub.host is set")
		}
		if c.LocalHub.ClientID == "" || c.LocalHub.ClientSecret == "" {
			errs = append(errs, "local_hub.client_id and local_hub.client_secret are required when local_hub.host is set")
		}
	} else {
		if c.Cloud.ClientID == "" || c.Cloud.ClientSecret == "" {
			errs = append(errs, "cloud.client_id and cloud.client_secret are required (set GRAYLOGIC_CLOUD_CLIENT_ID / GRAYLOGIC_CLOUD_CLIENT_SECRET)")
		}
		switch strings.ToUpper(c.Cloud.Region) {
		case "US", "EU":
		default:
			errs = append(errs, "cloud.region must be US or EU")
		}
	}

	if c.Stream.QoS < 0 || c.Stream.QoS > 2 {
		errs = append(errs, "stream.qos must be 0, 1, or 2")
	}

	if c.Store.Enabled && c.Store.Path == "" {
		errs = append(errs, "store.path is required when store.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReconnectDelay returns the stream reconnect delay as a Duration,
// clamped to the supported 5-30 second range.
func (c *Config) ReconnectDelay() time.Duration {
	d := c.Stream.ReconnectDelay
	if d < 5 {
		d = 5
	}
	if d > 30 {
		d = 30
	}
	return time.Duration(d) * time.Second
}
