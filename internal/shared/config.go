package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	HTTP      HTTPConfig      `toml:"http"`
	Images    ImagesConfig    `toml:"images"`
	Providers ProvidersConfig `toml:"providers"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig contains settings for the optional credential store.
//
// An empty Path disables persistence.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// HTTPConfig tunes the upstream HTTP clients shared by every provider.
type HTTPConfig struct {
	TimeoutSeconds int      `toml:"timeout_seconds"`
	RateLimit      float64  `toml:"rate_limit"` // requests per second, per provider
	Burst          int      `toml:"burst"`
	UserAgents     []string `toml:"user_agents"`
}

// ImagesConfig holds the image substituted when a provider has none.
type ImagesConfig struct {
	FallbackURL string `toml:"fallback_url"`
}

// ProvidersConfig contains provider selection and per-provider credentials.
type ProvidersConfig struct {
	Default string      `toml:"default"`
	Saavn   SaavnConfig `toml:"saavn"`
	Gaana   GaanaConfig `toml:"gaana"`
	Qobuz   QobuzConfig `toml:"qobuz"`
	Tidal   TidalConfig `toml:"tidal"`
}

type SaavnConfig struct {
	BaseURL string `toml:"base_url"`
}

type GaanaConfig struct {
	BaseURL string `toml:"base_url"`
	Country string `toml:"country"`
}

// QobuzConfig contains Qobuz app and user credentials.
//
// AppID and AppSecret are extracted from the public web bundle when left empty.
type QobuzConfig struct {
	BaseURL           string `toml:"base_url"`
	WebURL            string `toml:"web_url"`
	AppID             string `toml:"app_id"`
	AppSecret         string `toml:"app_secret"`
	UserAuthToken     string `toml:"user_auth_token"`
	ValidationTrackID string `toml:"validation_track_id"`
}

// TidalConfig contains Tidal client credentials and an optional user token for streaming.
type TidalConfig struct {
	BaseURL      string `toml:"base_url"`
	AuthURL      string `toml:"auth_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	UserToken    string `toml:"user_token"`
	CountryCode  string `toml:"country_code"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides configuration values with TUNEX_* environment variables when set.
func (c *Config) ApplyEnv() {
	strs := map[string]*string{
		"TUNEX_DEFAULT_PROVIDER":    &c.Providers.Default,
		"TUNEX_DATABASE_PATH":       &c.Database.Path,
		"TUNEX_FALLBACK_IMAGE_URL":  &c.Images.FallbackURL,
		"TUNEX_GAANA_COUNTRY":       &c.Providers.Gaana.Country,
		"TUNEX_QOBUZ_APP_ID":        &c.Providers.Qobuz.AppID,
		"TUNEX_QOBUZ_APP_SECRET":    &c.Providers.Qobuz.AppSecret,
		"TUNEX_QOBUZ_USER_TOKEN":    &c.Providers.Qobuz.UserAuthToken,
		"TUNEX_TIDAL_CLIENT_ID":     &c.Providers.Tidal.ClientID,
		"TUNEX_TIDAL_CLIENT_SECRET": &c.Providers.Tidal.ClientSecret,
		"TUNEX_TIDAL_USER_TOKEN":    &c.Providers.Tidal.UserToken,
		"TUNEX_TIDAL_COUNTRY_CODE":  &c.Providers.Tidal.CountryCode,
		"TUNEX_SERVER_HOST":         &c.Server.Host,
	}
	for key, dst := range strs {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("TUNEX_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the settings that must hold regardless of which providers are used.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: negative http timeout", ErrInvalidConfig)
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("%w: negative rate limit", ErrInvalidConfig)
	}
	return nil
}
