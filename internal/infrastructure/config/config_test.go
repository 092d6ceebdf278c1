package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "pipeline-north"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
command:
  ack_timeout: 45
  history_capacity: 50
liveness:
  default_timeout: 90
`
	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "pipeline-north" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "pipeline-north")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Command.AckTimeout != 45 {
		t.Errorf("Command.AckTimeout = %d, want 45", cfg.Command.AckTimeout)
	}
	if cfg.Liveness.DefaultTimeout != 90 {
		t.Errorf("Liveness.DefaultTimeout = %d, want 90", cfg.Liveness.DefaultTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// A minimal file should inherit defaults for everything it omits.
	cfg, err := Load(writeTestConfig(t, `site: {id: "s1"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Command.AckTimeout != 30 {
		t.Errorf("default Command.AckTimeout = %d, want 30", cfg.Command.AckTimeout)
	}
	if cfg.Command.HistoryCapacity != 100 {
		t.Errorf("default Command.HistoryCapacity = %d, want 100", cfg.Command.HistoryCapacity)
	}
	if cfg.Liveness.DefaultTimeout != 120 {
		t.Errorf("default Liveness.DefaultTimeout = %d, want 120", cfg.Liveness.DefaultTimeout)
	}
	if cfg.MQTT.Broker.ClientID != "cathodic-core" {
		t.Errorf("default MQTT.Broker.ClientID = %q, want %q", cfg.MQTT.Broker.ClientID, "cathodic-core")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CATHODIC_DATABASE_PATH", "/var/lib/cathodic/override.db")
	t.Setenv("CATHODIC_MQTT_HOST", "broker.example.com")

	cfg, err := Load(writeTestConfig(t, `site: {id: "s1"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/var/lib/cathodic/override.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing site id", func(c *Config) { c.Site.ID = "" }},
		{"missing database path", func(c *Config) { c.Database.Path = "" }},
		{"invalid qos", func(c *Config) { c.MQTT.QoS = 3 }},
		{"invalid api port", func(c *Config) { c.API.Port = 0 }},
		{"zero ack timeout", func(c *Config) { c.Command.AckTimeout = 0 }},
		{"zero history capacity", func(c *Config) { c.Command.HistoryCapacity = 0 }},
		{"zero liveness timeout", func(c *Config) { c.Liveness.DefaultTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate() expected error for %s, got nil", tt.name)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetAckTimeout(); got != 30*time.Second {
		t.Errorf("GetAckTimeout() = %v, want 30s", got)
	}
	if got := cfg.GetLivenessDefaultTimeout(); got != 120*time.Second {
		t.Errorf("GetLivenessDefaultTimeout() = %v, want 120s", got)
	}
	if got := cfg.GetReadTimeout(); got != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", got)
	}
}
