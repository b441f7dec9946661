package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"

	"github.com/mcncl/genpost/internal/errors"
)

// EnvPrefix prefixes every environment variable that overrides a setting.
const EnvPrefix = "GENPOST"

// Defaults
const (
	DefaultInput   = "testdata/example.json"
	DefaultURL     = "https://example.com"
	DefaultPath    = "/service/generate"
	DefaultTimeout = 10
)

// Config represents the complete configuration for genpost
type Config struct {
	Input    string        `yaml:"input"`
	URL      string        `yaml:"url"`
	Path     string        `yaml:"path"`
	Insecure bool          `yaml:"insecure"`
	Timeout  int           `yaml:"timeout"`
	Logging  LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the diagnostic log written to stderr
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CLIOverrides carries flag values. Empty strings and nil pointers mean the
// flag was not given, so an explicit zero still reaches Validate.
type CLIOverrides struct {
	Input    string
	URL      string
	Insecure *bool
	Timeout  *int
	Debug    bool
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Input:    DefaultInput,
		URL:      DefaultURL,
		Path:     DefaultPath,
		Insecure: false,
		Timeout:  DefaultTimeout,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".genpost.yml", ".genpost.yaml", "genpost.yml", "genpost.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// EnvName returns the environment variable that overrides the setting with
// the given YAML key, e.g. "timeout" -> GENPOST_TIMEOUT and
// "logging.level" -> GENPOST_LOGGING_LEVEL.
func EnvName(key string) string {
	return EnvPrefix + "_" + strcase.ToScreamingSnake(strings.ReplaceAll(key, ".", "_"))
}

// ApplyEnv overrides settings from environment variables found via lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	textFields := map[string]*string{
		"input":          &c.Input,
		"url":            &c.URL,
		"path":           &c.Path,
		"logging.level":  &c.Logging.Level,
		"logging.format": &c.Logging.Format,
	}
	for key, target := range textFields {
		if value, ok := lookup(EnvName(key)); ok && value != "" {
			*target = value
		}
	}

	if value, ok := lookup(EnvName("insecure")); ok && value != "" {
		insecure, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvName("insecure"), err)
		}
		c.Insecure = insecure
	}

	if value, ok := lookup(EnvName("timeout")); ok && value != "" {
		timeout, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvName("timeout"), err)
		}
		c.Timeout = timeout
	}

	return nil
}

// Validate checks that the settings describe a usable target.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return errors.NewConfigError("input must not be empty", errors.ErrInvalidFilePath)
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.NewConfigError(fmt.Sprintf("base URL %q must be an absolute http(s) URL", c.URL), errors.ErrInvalidURL)
	}
	if c.Timeout <= 0 {
		return errors.NewConfigError(fmt.Sprintf("timeout %d must be positive", c.Timeout), errors.ErrInvalidTimeout)
	}
	return nil
}

// RequestTimeout returns Timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// LoadConfigWithCLI resolves settings with increasing precedence: defaults,
// config file, environment, then flags that were given on the command line.
func LoadConfigWithCLI(configPath string, cli CLIOverrides, lookup func(string) (string, bool)) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, errors.NewConfigError(fmt.Sprintf("failed to load config '%s'", configPath), err)
		}
		cfg = fileConfig
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, errors.NewConfigError("invalid environment override", err)
	}

	if cli.Input != "" {
		cfg.Input = cli.Input
	}
	if cli.URL != "" {
		cfg.URL = cli.URL
	}
	if cli.Insecure != nil {
		cfg.Insecure = *cli.Insecure
	}
	if cli.Timeout != nil {
		cfg.Timeout = *cli.Timeout
	}
	if cli.Debug {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
