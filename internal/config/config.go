// Copyright (c) 2025 Tradepost Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tradepost.
//
// Configuration is TOML with sensible defaults, a .env file, environment
// variable overrides, and validation.
//
// Precedence, lowest to highest:
//   - Built-in defaults
//   - ~/.tradepost/config.toml
//   - .env in the working directory
//   - TRADEPOST_* environment variables
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete tradepost configuration.
type Config struct {
	Version string `toml:"version"`

	Backend BackendConfig `toml:"backend"`
	Chat    ChatConfig    `toml:"chat"`
	History HistoryConfig `toml:"history"`
	Export  ExportConfig  `toml:"export"`
	UI      UIConfig      `toml:"ui"`
}

// BackendConfig locates the market-data backend.
type BackendConfig struct {
	// BaseURL is the root URL of the backend HTTP API.
	BaseURL string `toml:"base_url"`
	// RequestTimeoutSecs bounds non-streaming requests. Streaming chat is
	// governed by context cancellation instead.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
}

// ChatConfig selects the LLM provider and model for chat.
type ChatConfig struct {
	// Provider is one of: ollama, openai, anthropic, gemini.
	Provider string `toml:"provider"`
	// Model is the provider-specific model name.
	Model string `toml:"model"`
}

// HistoryConfig controls the local price history cache.
type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
	// Path is the SQLite database file. Empty means ~/.tradepost/history.db.
	Path string `toml:"path"`
	// RetentionDays prunes cached price points older than this. 0 keeps all.
	RetentionDays int `toml:"retention_days"`
}

// ExportConfig controls conversation export.
type ExportConfig struct {
	// Directory receives exported files. Empty means ~/.tradepost/exports.
	Directory string `toml:"directory"`
	// DefaultFormat is used when no format flag is given: markdown, json, html.
	DefaultFormat string `toml:"default_format"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	Theme string `toml:"theme"`
	// CompactMode collapses message chrome to single-line headers.
	CompactMode bool `toml:"compact_mode"`
	// ShowToolActivity renders the backend's tool-call trace under replies.
	ShowToolActivity bool `toml:"show_tool_activity"`
	// WordWrap is the markdown wrap width. 0 follows the terminal width.
	WordWrap int `toml:"word_wrap"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			BaseURL:            "http://127.0.0.1:8000",
			RequestTimeoutSecs: 60,
		},

		Chat: ChatConfig{
			Provider: "ollama",
			Model:    "",
		},

		History: HistoryConfig{
			Enabled:       true,
			Path:          "",
			RetentionDays: 90,
		},

		Export: ExportConfig{
			Directory:     "",
			DefaultFormat: "markdown",
		},

		UI: UIConfig{
			Theme:            "dark",
			CompactMode:      false,
			ShowToolActivity: true,
			WordWrap:         0,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tradepost configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tradepost"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// HistoryPath resolves the SQLite history file, honoring the config override.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// ExportDir resolves the export directory, honoring the config override.
func (c *Config) ExportDir() (string, error) {
	if c.Export.Directory != "" {
		return c.Export.Directory, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "exports"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration: defaults, then the config file if present, then
// .env, then environment overrides, then validation.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	// A missing .env is not an error.
	_ = godotenv.Load()

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads a complete configuration from an explicit file,
// bypassing the default search. Env overrides still apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with owner-only
// permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# tradepost configuration file")
	fmt.Fprintln(file, "# Generated by tradepost - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ValidationError{"backend.base_url", "must be an http(s) URL"}
		}
	}
	if c.Backend.RequestTimeoutSecs < 0 {
		return ValidationError{"backend.request_timeout_secs", "must not be negative"}
	}

	if c.Chat.Provider != "" {
		valid := false
		for _, p := range []string{"ollama", "openai", "anthropic", "gemini"} {
			if c.Chat.Provider == p {
				valid = true
				break
			}
		}
		if !valid {
			return ValidationError{"chat.provider", "must be one of: ollama, openai, anthropic, gemini"}
		}
	}

	if c.History.RetentionDays < 0 {
		return ValidationError{"history.retention_days", "must not be negative"}
	}

	switch c.Export.DefaultFormat {
	case "", "markdown", "json", "html":
	default:
		return ValidationError{"export.default_format", "must be one of: markdown, json, html"}
	}

	if c.UI.WordWrap < 0 {
		return ValidationError{"ui.word_wrap", "must not be negative"}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - TRADEPOST_BACKEND_URL: overrides backend.base_url
//   - TRADEPOST_PROVIDER: overrides chat.provider
//   - TRADEPOST_MODEL: overrides chat.model
//   - TRADEPOST_HISTORY_PATH: overrides history.path
//   - TRADEPOST_NO_HISTORY: set to "1" or "true" to disable the price cache
//   - TRADEPOST_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("TRADEPOST_BACKEND_URL"); u != "" {
		c.Backend.BaseURL = u
	}
	if provider := os.Getenv("TRADEPOST_PROVIDER"); provider != "" {
		c.Chat.Provider = provider
	}
	if model := os.Getenv("TRADEPOST_MODEL"); model != "" {
		c.Chat.Model = model
	}
	if path := os.Getenv("TRADEPOST_HISTORY_PATH"); path != "" {
		c.History.Path = path
	}
	if v := os.Getenv("TRADEPOST_NO_HISTORY"); v != "" {
		if v == "1" || strings.EqualFold(v, "true") {
			c.History.Enabled = false
		}
	}
	if theme := os.Getenv("TRADEPOST_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation
// (e.g., "backend.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 || key == "" {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 || key == "" {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}
		if field.Kind() != reflect.Struct {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go
// field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type
// conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.EqualFold(strVal, "true") || strings.EqualFold(strVal, "yes")
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
