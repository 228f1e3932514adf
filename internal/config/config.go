// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for aigw.
//
// Supports TOML configuration with sensible defaults, environment
// variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.aigw/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/aigw/internal/util"
)

// Environment variable names recognized by aigw.
const (
	EnvAPIKey       = "AI_GATEWAY_API_KEY"
	EnvBaseURL      = "AI_GATEWAY_BASE_URL"
	EnvModel        = "AIGW_MODEL"
	EnvSystemPrompt = "AIGW_SYSTEM_PROMPT"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete aigw configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Gateway connection configuration
	Gateway GatewayConfig `toml:"gateway" json:"gateway"`

	// Chat defaults
	Chat ChatConfig `toml:"chat" json:"chat"`

	// History persistence configuration
	History HistoryConfig `toml:"history" json:"history"`
}

// GatewayConfig contains AI Gateway connection configuration.
type GatewayConfig struct {
	// APIKey is the AI Gateway API key. Usually supplied via the
	// AI_GATEWAY_API_KEY environment variable rather than the file.
	APIKey string `toml:"api_key" json:"api_key"`
	// BaseURL is the gateway endpoint (empty = the public gateway)
	BaseURL string `toml:"base_url" json:"base_url"`
	// MaxRetries is the retry count for transient errors
	MaxRetries int `toml:"max_retries" json:"max_retries"`
}

// ChatConfig contains the default chat parameters.
type ChatConfig struct {
	// DefaultModel is the model used when none is requested
	DefaultModel string `toml:"default_model" json:"default_model"`
	// SystemPrompt is prepended to every conversation when set
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
	// Temperature is the default sampling temperature
	Temperature float64 `toml:"temperature" json:"temperature"`
	// MaxTokens caps completion length (0 = gateway default)
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`
}

// HistoryConfig contains exchange-log persistence configuration.
type HistoryConfig struct {
	// Enabled controls whether exchanges are logged to disk
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the SQLite database path (empty = ~/.aigw/history.db)
	Path string `toml:"path" json:"path"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Gateway: GatewayConfig{
			MaxRetries: 3,
		},
		Chat: ChatConfig{
			DefaultModel: "deepseek/deepseek-v3.2-exp",
			Temperature:  0.7,
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the aigw configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".aigw"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryDBPath returns the configured history database path, or the
// default under the config directory.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 because they may hold API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when no file exists. Environment overrides are applied last,
// then the result is validated.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFile loads only the defaults and the config file, skipping
// environment overrides. Edit-and-save paths must use this so values
// taken from the environment (notably AI_GATEWAY_API_KEY) are never
// written back into the file.
func LoadFile() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600
// permissions. The write is atomic so a crash mid-save cannot leave a
// truncated config behind.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# aigw configuration file")
	fmt.Fprintln(&buf, "# Generated by aigw - edit with care")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
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

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

// Error implements the error interface.
func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Gateway.BaseURL != "" {
		u, err := url.Parse(c.Gateway.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "gateway.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Gateway.BaseURL),
			})
		}
	}

	if c.Gateway.MaxRetries < 0 || c.Gateway.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "gateway.max_retries",
			Message: fmt.Sprintf("must be 0-10, got %d", c.Gateway.MaxRetries),
		})
	}

	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "chat.temperature",
			Message: fmt.Sprintf("must be 0.0-2.0, got %g", c.Chat.Temperature),
		})
	}

	if c.Chat.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.max_tokens",
			Message: fmt.Sprintf("must be non-negative, got %d", c.Chat.MaxTokens),
		})
	}

	if c.Chat.DefaultModel == "" {
		errs = append(errs, ValidationError{
			Field:   "chat.default_model",
			Message: "must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in zero values with defaults after loading.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Chat.DefaultModel == "" {
		c.Chat.DefaultModel = defaults.Chat.DefaultModel
	}
	if c.Chat.Temperature == 0 {
		c.Chat.Temperature = defaults.Chat.Temperature
	}
	if c.Gateway.MaxRetries == 0 {
		c.Gateway.MaxRetries = defaults.Gateway.MaxRetries
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - AI_GATEWAY_API_KEY: overrides gateway.api_key
//   - AI_GATEWAY_BASE_URL: overrides gateway.base_url
//   - AIGW_MODEL: overrides chat.default_model
//   - AIGW_SYSTEM_PROMPT: overrides chat.system_prompt
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.Gateway.APIKey = key
	}
	if baseURL := os.Getenv(EnvBaseURL); baseURL != "" {
		c.Gateway.BaseURL = baseURL
	}
	if model := os.Getenv(EnvModel); model != "" {
		c.Chat.DefaultModel = model
	}
	if prompt := os.Getenv(EnvSystemPrompt); prompt != "" {
		c.Chat.SystemPrompt = prompt
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.temperature").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
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

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "chat.default_model").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
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

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
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

// setFieldValue sets a reflect.Value from an interface{} with type conversion.
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
			boolVal, err := strconv.ParseBool(strVal)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
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
	return fmt.Errorf("cannot assign %T to field of type %s", value, field.Type())
}
