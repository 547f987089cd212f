// Package config provides a reusable loader for coordhead configuration
// files and environment variables. It is versioned so that applications
// can depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/synnergy-network/coordhead/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a coordhead node process. It
// mirrors the YAML files under cmd/config.
type Config struct {
	Head struct {
		ContestationPeriodSeconds int      `mapstructure:"contestation_period_seconds" json:"contestation_period_seconds"`
		Parties                   []string `mapstructure:"parties" json:"parties"`
	} `mapstructure:"head" json:"head"`

	Network struct {
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
		DiscoveryTag   string   `mapstructure:"discovery_tag" json:"discovery_tag"`
	} `mapstructure:"network" json:"network"`

	Signing struct {
		KeyFile string `mapstructure:"key_file" json:"key_file"`
	} `mapstructure:"signing" json:"signing"`

	Storage struct {
		JournalPath string `mapstructure:"journal_path" json:"journal_path"`
	} `mapstructure:"storage" json:"storage"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads cmd/config/default.yaml and merges any environment-specific
// override file (e.g. cmd/config/<env>.yaml), then applies environment
// variable and .env overrides. The resulting configuration is stored in
// AppConfig and returned.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env via godotenv in cmd/head

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the COORDHEAD_ENV environment
// variable to select an override file.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("COORDHEAD_ENV", ""))
}
