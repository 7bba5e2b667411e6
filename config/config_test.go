package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a temporary YAML config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
cloud:
  client_id: ua_test
  client_secret: sec_test
  region: EU
stream:
  reconnect_delay: 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cloud.ClientID != "ua_test" {
		t.Errorf("Cloud.ClientID = %q, want %q", cfg.Cloud.ClientID, "ua_test")
	}
	if cfg.Cloud.Region != "EU" {
		t.Errorf("Cloud.Region = %q, want EU", cfg.Cloud.Region)
	}
	if got := cfg.ReconnectDelay(); got != 10*time.Second {
		t.Errorf("ReconnectDelay() = %v, want 10s", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadMissingCredentials(t *testing.T) {
	path := writeConfig(t, `
cloud:
  region: US
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error for missing credentials")
	}
	if !strings.Contains(err.Error(), "client_id") {
		t.Errorf("Load() error = %v, want credential message", err)
	}
}

func TestLoadLocalHub(t *testing.T) {
	path := writeConfig(t, `
local_hub:
  host: 192.168.1.10
  net_id: net-1
  client_id: local-id
  client_secret: local-secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LocalHub.Host != "192.168.1.10" {
		t.Errorf("LocalHub.Host = %q, want 192.168.1.10", cfg.LocalHub.Host)
	}
}

func TestLoadLocalHubIncomplete(t *testing.T) {
	path := writeConfig(t, `
local_hub:
  host: 192.168.1.10
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error for incomplete local hub settings")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GRAYLOGIC_CLOUD_CLIENT_ID", "env-id")
	t.Setenv("GRAYLOGIC_CLOUD_CLIENT_SECRET", "env-secret")

	path := writeConfig(t, `
cloud:
  client_id: file-id
  client_secret: file-secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cloud.ClientID != "env-id" {
		t.Errorf("Cloud.ClientID = %q, want env override", cfg.Cloud.ClientID)
	}
}

func TestReconnectDelayClamped(t *testing.T) {
	tests := []struct {
		name  string
		delay int
		want  time.Duration
	}{
		{"below minimum", 1, 5 * time.Second},
		{"within range", 15, 15 * time.Second},
		{"above maximum", 120, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Stream: StreamConfig{ReconnectDelay: tt.delay}}
			if got := cfg.ReconnectDelay(); got != tt.want {
				t.Errorf("ReconnectDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateQoS(t *testing.T) {
	cfg := defaultConfig()
	cfg.Cloud.ClientID = "id"
	cfg.Cloud.ClientSecret = "secret"
	cfg.Stream.QoS = 3

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for invalid QoS")
	}
}
