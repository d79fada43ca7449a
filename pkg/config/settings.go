// Package config loads apiprobe settings from defaults, an optional
// apiprobe.yaml, APIPROBE_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "APIPROBE"
	fileName  = "apiprobe"
	fileType  = "yaml"
)

type Settings struct {
	// Root of the API under test
	BaseURL string `mapstructure:"base_url"`
	// Path of the config store file
	Store string `mapstructure:"store"`
	// Directory receiving response artifacts
	OutputDir string `mapstructure:"output_dir"`
	// Log level (debug, info, warn, error)
	LogLevel string `mapstructure:"log_level"`
}

var defaults = map[string]string{
	"base_url":   "http://localhost:8080/v1",
	"store":      "config.json",
	"output_dir": "responses",
	"log_level":  "info",
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// BindFlags lets flags override the settings they are named after, with
// dashes in place of underscores (--base-url overrides base_url).
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key := range defaults {
		flag := flags.Lookup(flagName(key))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// Load reads path, or apiprobe.yaml in the working directory when path is
// empty, and returns the merged settings. Only an explicit path must exist.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType(fileType)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
