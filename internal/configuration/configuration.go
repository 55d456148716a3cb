package configuration

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultMaxBodyBytes = 10 << 20
	defaultMaxItems     = 10000
	defaultLogSize      = 100
	defaultLogBackups   = 5
)

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// Logger — logger component configuration
	Logger LoggerConfig `mapstructure:"logger"`
	// Server — HTTP server configuration
	Server ServerConfig `mapstructure:"server"`
	// Artifacts — locations of the model, threshold and feature list
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	// Predict — batch prediction behaviour
	Predict PredictConfig `mapstructure:"predict"`
	// Metrics — prometheus exposition
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level — log level: debug, info, warn, warning, error.
	// Value is case-insensitive but checked in lowercase.
	Level string `mapstructure:"level"`
	// File — optional log file; rotated by size. Logs go to stdout when empty.
	File string `mapstructure:"file"`
	// MaxSize — file size in megabytes before rotation (default 100)
	MaxSize int `mapstructure:"max_size"`
	// MaxBackups — number of rotated files to keep (default 5)
	MaxBackups int `mapstructure:"max_backups"`
}

// ServerConfig contains HTTP server parameters.
type ServerConfig struct {
	// Address — address and port where the server will listen (e.g., ":8080").
	Address string `mapstructure:"address"`
	// MaxBodyBytes — request body limit (default 10MiB)
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// ArtifactsConfig points at the files loaded at startup.
// Relative paths are resolved against the directory of the configuration file.
type ArtifactsConfig struct {
	Model     string `mapstructure:"model"`
	Threshold string `mapstructure:"threshold"`
	Features  string `mapstructure:"features"`
}

type PredictConfig struct {
	// FailFast — abort the whole batch on the first invalid item
	// instead of reporting an error for that item only.
	FailFast bool `mapstructure:"fail_fast"`
	// MaxItems — maximal number of items per request (default 10000)
	MaxItems int `mapstructure:"max_items"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks the correctness of the entire application configuration.
// Calls validation for each nested structure and returns the first detected error.
// Returns nil if the configuration is valid.
func (c *AppConfig) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	if err := c.Server.Validate(); err != nil {
		return err
	}

	if err := c.Artifacts.Validate(); err != nil {
		return err
	}

	if err := c.Predict.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate checks the correctness of the logger configuration.
// Verifies that the log level is set and is one of the supported values.
// Supported values: debug, info, warn, warning, error (case-insensitive).
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}

	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}

	if l.MaxSize == 0 {
		l.MaxSize = defaultLogSize
	}

	if l.MaxBackups == 0 {
		l.MaxBackups = defaultLogBackups
	}

	if l.MaxSize < 0 || l.MaxBackups < 0 {
		return errors.New("logger: max_size and max_backups must not be negative")
	}

	return nil
}

// Validate checks the correctness of the server configuration.
// Verifies that the server address is set.
func (n *ServerConfig) Validate() error {
	if n.Address == "" {
		return errors.New("server.address: must be specified")
	}

	if n.MaxBodyBytes == 0 {
		n.MaxBodyBytes = defaultMaxBodyBytes
	}

	if n.MaxBodyBytes < 0 {
		return errors.New("server.max_body_bytes: must be positive")
	}

	return nil
}

// Validate checks that every artifact path is set.
func (a *ArtifactsConfig) Validate() error {
	if a.Model == "" {
		return errors.New("artifacts.model: must be specified")
	}

	if a.Threshold == "" {
		return errors.New("artifacts.threshold: must be specified")
	}

	if a.Features == "" {
		return errors.New("artifacts.features: must be specified")
	}

	return nil
}

// resolve makes relative artifact paths relative to dir.
func (a *ArtifactsConfig) resolve(dir string) {
	for _, p := range []*string{&a.Model, &a.Threshold, &a.Features} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate prediction parameters
func (p *PredictConfig) Validate() error {
	if p.MaxItems == 0 {
		p.MaxItems = defaultMaxItems
	}

	if p.MaxItems < 0 {
		return errors.New("predict.max_items: must be positive")
	}

	return nil
}

// LoadConfig loads configuration from the specified file using Viper.
// Supports YAML format. Environment variables prefixed with FRAUD override
// values from the file, e.g. FRAUD_SERVER_ADDRESS for server.address, including
// keys the file leaves out.
//
// Parameter configPath — path to the configuration file.
//
// Returns a pointer to AppConfig or an error if:
// - the file is not found or inaccessible
// - the configuration has invalid format
// - one of the sections fails validation
func LoadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("fraud")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default: AutomaticEnv only overrides keys viper already knows.
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 0)
	v.SetDefault("logger.max_backups", 0)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.max_body_bytes", 0)
	v.SetDefault("artifacts.model", "")
	v.SetDefault("artifacts.threshold", "")
	v.SetDefault("artifacts.features", "")
	v.SetDefault("predict.fail_fast", false)
	v.SetDefault("predict.max_items", 0)
	v.SetDefault("metrics.enabled", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	config.Artifacts.resolve(filepath.Dir(configPath))

	return &config, nil
}
