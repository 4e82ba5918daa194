// Package config resolves the tool's configuration. Viper stays contained
// in this package; the rest of the codebase receives an explicit Config
// struct. Sources are resolved in this order: flags > env > config file >
// defaults.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is what the rest of the codebase sees.
type Config struct {
	// Region is the source account region; source credentials themselves
	// come from the ambient AWS credential chain.
	Region string

	// TargetEndpoint is the local emulator's edge URL.
	TargetEndpoint string

	// StagingBucket receives downloaded function code before the target
	// create call references it.
	StagingBucket string

	// Workers bounds the number of concurrently migrating resource kinds.
	Workers int

	// CopyData enables the data-copy pipelines. Decided before the run;
	// nothing prompts mid-migration.
	CopyData bool

	LogFile  string
	LogLevel string

	// ReportFile, when set, receives the YAML run summary.
	ReportFile string

	Database DatabaseConfig
}

// DatabaseConfig carries the connection settings for the relational
// dump/restore pipe, source side and local target side.
type DatabaseConfig struct {
	Source DBEndpoint
	Target DBEndpoint
}

// DBEndpoint is one relational connection target.
type DBEndpoint struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// Init initializes viper with defaults, env bindings and config file
// search paths.
func Init() error {
	viper.SetConfigName("localmirror")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.localmirror")
	viper.AddConfigPath(".")

	viper.SetDefault("region", "us-east-1")
	viper.SetDefault("target-endpoint", "http://localhost:4566")
	viper.SetDefault("staging-bucket", "localmirror-staging")
	viper.SetDefault("workers", 4)
	viper.SetDefault("copy-data", false)
	viper.SetDefault("log-file", "localmirror.log")
	viper.SetDefault("log-level", "info")
	viper.SetDefault("report-file", "")

	viper.SetDefault("db-source-host", "")
	viper.SetDefault("db-source-port", 3306)
	viper.SetDefault("db-source-user", "root")
	viper.SetDefault("db-source-password", "")
	viper.SetDefault("db-source-name", "")
	viper.SetDefault("db-target-host", "127.0.0.1")
	viper.SetDefault("db-target-port", 3306)
	viper.SetDefault("db-target-user", "root")
	viper.SetDefault("db-target-password", "localmirror")
	viper.SetDefault("db-target-name", "mirror")

	viper.SetEnvPrefix("LOCALMIRROR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Load reads from all sources and returns the explicit Config.
func Load() (*Config, error) {
	cfg := &Config{
		Region:         viper.GetString("region"),
		TargetEndpoint: viper.GetString("target-endpoint"),
		StagingBucket:  viper.GetString("staging-bucket"),
		Workers:        viper.GetInt("workers"),
		CopyData:       viper.GetBool("copy-data"),
		LogFile:        viper.GetString("log-file"),
		LogLevel:       viper.GetString("log-level"),
		ReportFile:     viper.GetString("report-file"),
		Database: DatabaseConfig{
			Source: DBEndpoint{
				Host:     viper.GetString("db-source-host"),
				Port:     viper.GetInt("db-source-port"),
				User:     viper.GetString("db-source-user"),
				Password: viper.GetString("db-source-password"),
				Name:     viper.GetString("db-source-name"),
			},
			Target: DBEndpoint{
				Host:     viper.GetString("db-target-host"),
				Port:     viper.GetInt("db-target-port"),
				User:     viper.GetString("db-target-user"),
				Password: viper.GetString("db-target-password"),
				Name:     viper.GetString("db-target-name"),
			},
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the run could not start with.
func (c *Config) Validate() error {
	if c.TargetEndpoint == "" {
		return fmt.Errorf("target-endpoint must not be empty")
	}
	if c.StagingBucket == "" {
		return fmt.Errorf("staging-bucket must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	return nil
}
