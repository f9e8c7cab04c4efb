package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config is the on-disk configuration, see DefaultConfig for the first-run values
type Config struct {
	LLMProviders   map[string]ProviderConfig `json:"llm_providers"`
	ActiveProvider string                    `json:"active_provider"`
	Data           DataConfig                `json:"data"`
	Server         ServerConfig              `json:"server"`
	Auth           AuthConfig                `json:"auth"`
	Log            LogConfig                 `json:"log"`
	Proxy          ProxyConfig               `json:"proxy"`
}

// ProviderConfig describes one upstream completion backend
type ProviderConfig struct {
	DisplayName  string   `json:"display_name,omitempty"`
	Kind         string   `json:"kind,omitempty"` // openai or ollama; defaults to the map key
	APIKey       string   `json:"api_key"`
	BaseURL      string   `json:"base_url"`
	DefaultModel string   `json:"default_model"`
	Models       []string `json:"models,omitempty"`
	Enabled      bool     `json:"enabled"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  float64  `json:"temperature,omitempty"`
	Timeout      int      `json:"timeout,omitempty"` // seconds
}

// DataConfig selects where conversations and the session flag are kept
type DataConfig struct {
	Backend      string `json:"backend"` // sqlite, bolt, file or memory
	DBPath       string `json:"db_path"`
	ClearOnStart bool   `json:"clear_on_start"`
}

// ServerConfig configures the chat gateway and how the terminal reaches it
type ServerConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins,omitempty"`
	GatewayURL  string   `json:"gateway_url"`
}

// AuthConfig holds the single admin credential pair
type AuthConfig struct {
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// LogConfig mirrors LogOptions
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Path   string `json:"path,omitempty"`
}

// ProxyConfig routes provider traffic through an HTTP proxy
type ProxyConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

// envOverrides are applied on top of the file; unset variables leave the file value alone
type envOverrides struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	Addr          string `env:"LIGHT_CHAT_ADDR"`
	GatewayURL    string `env:"LIGHT_CHAT_GATEWAY"`
	Backend       string `env:"LIGHT_CHAT_BACKEND"`
	LogLevel      string `env:"LOG_LEVEL"`
	LogFormat     string `env:"LOG_FORMAT"`
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; variables already set win.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// LoadConfig reads path, fills missing fields from DefaultConfig, then applies environment overrides
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	cfg.Data.DBPath = expandPath(cfg.Data.DBPath)
	cfg.Log.Path = expandPath(cfg.Log.Path)
	return cfg, nil
}

// ApplyEnv overlays environment variables onto the config
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if o.OpenAIAPIKey != "" {
		if c.LLMProviders == nil {
			c.LLMProviders = map[string]ProviderConfig{}
		}
		p := c.LLMProviders["openai"]
		p.APIKey = o.OpenAIAPIKey
		c.LLMProviders["openai"] = p
	}
	setIf(&c.Auth.AdminEmail, o.AdminEmail)
	setIf(&c.Auth.AdminPassword, o.AdminPassword)
	setIf(&c.Server.Addr, o.Addr)
	setIf(&c.Server.GatewayURL, o.GatewayURL)
	setIf(&c.Data.Backend, o.Backend)
	setIf(&c.Log.Level, o.LogLevel)
	setIf(&c.Log.Format, o.LogFormat)
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.LLMProviders == nil {
		c.LLMProviders = def.LLMProviders
	}
	if c.Data.Backend == "" {
		c.Data.Backend = def.Data.Backend
	}
	if c.Data.DBPath == "" {
		c.Data.DBPath = def.Data.DBPath
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.GatewayURL == "" {
		c.Server.GatewayURL = def.Server.GatewayURL
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// Provider returns the named provider, or the active one when name is empty.
// Without an active provider the first enabled one (by name) is used.
func (c *Config) Provider(name string) (string, ProviderConfig, error) {
	if name == "" {
		name = c.ActiveProvider
	}
	if name != "" {
		p, ok := c.LLMProviders[name]
		if !ok {
			return "", ProviderConfig{}, fmt.Errorf("provider %q is not configured", name)
		}
		return name, p, nil
	}

	names := make([]string, 0, len(c.LLMProviders))
	for n, p := range c.LLMProviders {
		if p.Enabled {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "", ProviderConfig{}, errors.New("no enabled LLM provider")
	}
	sort.Strings(names)
	return names[0], c.LLMProviders[names[0]], nil
}

// ProxyURL returns the proxy to use, or "" when disabled
func (c *Config) ProxyURL() string {
	if c.Proxy.Enabled {
		return c.Proxy.URL
	}
	return ""
}

// SaveConfig writes cfg as indented JSON, readable by the owner only
// since the admin password may be stored in it.
func SaveConfig(path string, cfg *Config) error {
	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// expandPath resolves a leading ~ and makes the result absolute; "" stays ""
func expandPath(p string) string {
	if p == "" {
		return p
	}
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// GetConfigPath is <user config dir>/light-chat/config.json
func GetConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "config", "config.json")
	}
	return filepath.Join(dir, "light-chat", "config.json")
}

// DefaultConfig returns the configuration written on first run
func DefaultConfig() *Config {
	return &Config{
		LLMProviders: map[string]ProviderConfig{
			"openai": {
				DisplayName:  "OpenAI",
				Kind:         "openai",
				BaseURL:      "https://api.openai.com/v1",
				DefaultModel: "gpt-3.5-turbo",
				Models:       []string{"gpt-3.5-turbo", "gpt-4", "gpt-4o-mini"},
				Enabled:      true,
			},
			"ollama": {
				DisplayName:  "Ollama",
				Kind:         "ollama",
				BaseURL:      "http://localhost:11434",
				DefaultModel: "llama2",
				Models:       []string{"llama2", "mistral", "codellama"},
			},
		},
		ActiveProvider: "openai",
		Data: DataConfig{
			Backend: "sqlite",
			DBPath:  "./data/chat.db",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
			GatewayURL:  "http://localhost:8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// EnsureDefaultConfig returns GetConfigPath, writing DefaultConfig there on first run
func EnsureDefaultConfig() (string, error) {
	path := GetConfigPath()
	if err := ensureConfigAt(path); err != nil {
		return "", err
	}
	return path, nil
}

func ensureConfigAt(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config %s: %w", path, err)
	}
	return SaveConfig(path, DefaultConfig())
}
