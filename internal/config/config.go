// Package config stores modelpub's local state under ~/.modelpub: the app
// config, server profiles, local datasource definitions and encrypted
// credentials.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable that overrides a config key.
	EnvPrefix = "MODELPUB"
	// HomeEnv relocates the config directory.
	HomeEnv = "MODELPUB_HOME"

	DefaultStagingDir = "models"
	DefaultTimeout    = 30 * time.Second
)

type Config struct {
	CurrentServer string
	StagingDir    string
	Timeout       time.Duration
	Log           struct {
		Level  string
		Format string
	}
	Output struct {
		Plain bool
	}

	// ConfigFile is the file the values were read from, if any.
	ConfigFile string
}

func GetConfigDir() (string, error) {
	configDir := os.Getenv(HomeEnv)
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".modelpub")
	}
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return "", err
		}
	}
	return configDir, nil
}

func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("current_server", "")
	v.SetDefault("staging_dir", DefaultStagingDir)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "auto")
	v.SetDefault("output.plain", false)
}

// LoadConfig reads configuration, lowest precedence first: defaults, the
// config file, .env files, then MODELPUB_* environment variables. Flags bound
// to v by the caller win over all of them. A missing config file is not an
// error; an explicitly named one that cannot be read is.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	loadEnvFiles()

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		dir, err := GetConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		CurrentServer: v.GetString("current_server"),
		StagingDir:    v.GetString("staging_dir"),
		Timeout:       v.GetDuration("timeout"),
		ConfigFile:    v.ConfigFileUsed(),
	}
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.Output.Plain = v.GetBool("output.plain")

	if cfg.StagingDir == "" {
		cfg.StagingDir = DefaultStagingDir
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg, nil
}

// SaveConfig writes the persistent keys of cfg to config.yaml.
func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("current_server", cfg.CurrentServer)
	v.Set("staging_dir", cfg.StagingDir)
	v.Set("timeout", cfg.Timeout.String())
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("output.plain", cfg.Output.Plain)
	return v.WriteConfigAs(path)
}

// loadEnvFiles loads .env then .env.local from the working directory.
// Variables already set in the environment are kept.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}
