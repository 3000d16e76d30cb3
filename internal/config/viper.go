// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"ndjaka/mineral-tax/internal/logging"
)

// EnvPrefix is the prefix of every environment variable read by the application.
const EnvPrefix = "MINERALTAX"

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
		Strict    bool   `mapstructure:"strict" yaml:"strict"`
	} `mapstructure:"csv" yaml:"csv"`

	Rates struct {
		TableFile string `mapstructure:"table_file" yaml:"table_file"`
	} `mapstructure:"rates" yaml:"rates"`

	Data struct {
		MachinesFile string `mapstructure:"machines_file" yaml:"machines_file"`
	} `mapstructure:"data" yaml:"data"`

	Report struct {
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"report" yaml:"report"`

	Server struct {
		Address             string `mapstructure:"address" yaml:"address"`
		ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	} `mapstructure:"server" yaml:"server"`

	Batch struct {
		Workers int `mapstructure:"workers" yaml:"workers"`
	} `mapstructure:"batch" yaml:"batch"`
}

// Delimiter returns the configured CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	if c == nil || c.CSV.Delimiter == "" {
		return ','
	}
	return []rune(c.CSV.Delimiter)[0]
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return initializeConfig("")
}

// InitializeConfigFromFile loads configuration from an explicit file instead of
// searching the default locations. Env vars still take precedence.
func InitializeConfigFromFile(path string) (*Config, error) {
	return initializeConfig(path)
}

func initializeConfig(explicitFile string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.mineral-tax")
		v.AddConfigPath(".mineral-tax")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || explicitFile != "" {
			if explicitFile != "" {
				return nil, fmt.Errorf("error reading config file %s: %w", explicitFile, err)
			}
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration with only defaults applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// Unmarshal of defaults cannot fail.
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("csv.delimiter", ",")
	v.SetDefault("csv.strict", false)

	v.SetDefault("rates.table_file", "")
	v.SetDefault("data.machines_file", "machines.yaml")
	v.SetDefault("report.format", "csv")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout_seconds", 10)
	v.SetDefault("server.write_timeout_seconds", 30)

	v.SetDefault("batch.workers", 4)
}

// Validate checks a configuration that was changed after loading, for
// example by command-line overrides.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	return validateConfig(c)
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if len([]rune(config.CSV.Delimiter)) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	switch config.Report.Format {
	case "csv", "json", "xml":
	default:
		return fmt.Errorf("invalid report format: %s (must be 'csv', 'json' or 'xml')", config.Report.Format)
	}

	if config.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}

	if config.Server.ReadTimeoutSeconds < 1 || config.Server.WriteTimeoutSeconds < 1 {
		return fmt.Errorf("server timeouts must be at least 1 second")
	}

	if config.Batch.Workers < 1 || config.Batch.Workers > 64 {
		return fmt.Errorf("batch.workers must be between 1 and 64, got: %d", config.Batch.Workers)
	}

	return nil
}

// ConfigureLoggingFromConfig builds the application logger from the Config struct
func ConfigureLoggingFromConfig(config *Config) logging.Logger {
	if config == nil {
		return logging.NewLogrusAdapter("info", "text")
	}
	return logging.NewLogrusAdapter(strings.ToLower(config.Log.Level), strings.ToLower(config.Log.Format))
}
