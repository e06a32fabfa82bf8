package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "" {
			t.Errorf("expected empty database path, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Providers.Default != "saavn" {
			t.Errorf("expected default provider saavn, got %s", config.Providers.Default)
		}

		if config.Providers.Qobuz.ValidationTrackID != "5966783" {
			t.Errorf("expected qobuz validation track 5966783, got %s", config.Providers.Qobuz.ValidationTrackID)
		}

		if config.Providers.Tidal.CountryCode != "US" {
			t.Errorf("expected tidal country US, got %s", config.Providers.Tidal.CountryCode)
		}

		if config.Providers.Gaana.Country != "IN" {
			t.Errorf("expected gaana country IN, got %s", config.Providers.Gaana.Country)
		}

		if len(config.HTTP.UserAgents) != 3 {
			t.Errorf("expected 3 user agents, got %d", len(config.HTTP.UserAgents))
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Providers.Saavn.BaseURL != defaultConfig.Providers.Saavn.BaseURL {
			t.Errorf("created config saavn base url doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/tunex.db"

[server]
host = "0.0.0.0"
port = 8080

[providers]
default = "qobuz"

[providers.qobuz]
app_id = "123456789"
app_secret = "abcdef0123456789abcdef0123456789"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/tunex.db" {
			t.Errorf("expected database path /custom/tunex.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Providers.Qobuz.AppID != "123456789" {
			t.Errorf("expected qobuz app_id 123456789, got %s", config.Providers.Qobuz.AppID)
		}

		if config.Providers.Qobuz.BaseURL != "https://www.qobuz.com/api.json/0.2" {
			t.Errorf("expected qobuz base url default to survive, got %s", config.Providers.Qobuz.BaseURL)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("TUNEX_TIDAL_CLIENT_ID", "env-client")
		t.Setenv("TUNEX_DEFAULT_PROVIDER", "tidal")
		t.Setenv("TUNEX_SERVER_PORT", "9999")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Providers.Tidal.ClientID != "env-client" {
			t.Errorf("expected tidal client id from env, got %s", config.Providers.Tidal.ClientID)
		}
		if config.Providers.Default != "tidal" {
			t.Errorf("expected default provider tidal, got %s", config.Providers.Default)
		}
		if config.Server.Port != 9999 {
			t.Errorf("expected port 9999, got %d", config.Server.Port)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		config.Server.Port = 70000
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}

		config = DefaultConfig()
		config.HTTP.RateLimit = -1
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
