// Package config loads tidyinbox settings from a config file, environment
// variables (TIDYINBOX_*), and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is everything the CLI needs to wire a service together.
type Config struct {
	// CredentialsDir holds the gmailctl-compatible OAuth credential files.
	CredentialsDir string `mapstructure:"credentials_dir"`
	// DatabasePath is where run history is kept.
	DatabasePath string `mapstructure:"database_path"`
	// PolicyPath points at the cleanup policy file; empty means the
	// built-in default policy.
	PolicyPath string `mapstructure:"policy_path"`

	UserID      string        `mapstructure:"user_id"`
	MaxThreads  int           `mapstructure:"max_threads"`
	PageSize    int           `mapstructure:"page_size"`
	RPS         int           `mapstructure:"rps"`
	Burst       int           `mapstructure:"burst"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// Load reads configuration from path, or from the default locations when
// path is empty. A missing file is fine; defaults and environment still
// apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TIDYINBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	dir := defaultConfigDir()
	v.SetDefault("credentials_dir", dir)
	v.SetDefault("database_path", filepath.Join(dir, "runs.db"))
	v.SetDefault("user_id", "me")
	v.SetDefault("max_threads", 500)
	v.SetDefault("page_size", 100)
	v.SetDefault("rps", 5)
	v.SetDefault("burst", 10)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("call_timeout", 30*time.Second)
}

func (c Config) validate() error {
	if c.MaxThreads <= 0 {
		return fmt.Errorf("max_threads must be positive, got %d", c.MaxThreads)
	}
	if c.PageSize <= 0 || c.PageSize > 500 {
		return fmt.Errorf("page_size must be in 1..500, got %d", c.PageSize)
	}
	if c.RPS <= 0 {
		return fmt.Errorf("rps must be positive, got %d", c.RPS)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	return nil
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tidyinbox")
	}
	return ".tidyinbox"
}
