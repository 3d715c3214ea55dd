// Package config loads server settings from defaults, an optional config
// file and WEBTERM_ environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"webterm/logging"
	"webterm/storage"
)

const EnvPrefix = "WEBTERM"

// FileKey names the setting that points at a config file.
const FileKey = "config"

type Config struct {
	Port              int           `mapstructure:"port"`
	Log               LogConfig     `mapstructure:"log"`
	ConnectionTimeout int           `mapstructure:"connection_timeout"`
	Storage           StorageConfig `mapstructure:"storage"`
	FS                FSConfig      `mapstructure:"fs"`
	Suggest           SuggestConfig `mapstructure:"suggest"`
	Complete          struct {
		Debounce time.Duration `mapstructure:"debounce"`
	} `mapstructure:"complete"`
	History HistoryConfig `mapstructure:"history"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Backend string     `mapstructure:"backend"`
	Path    string     `mapstructure:"path"`
	SFTP    SFTPConfig `mapstructure:"sftp"`
}

type SFTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Dir      string `mapstructure:"dir"`
}

type FSConfig struct {
	Quota int64 `mapstructure:"quota"`
}

type SuggestConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type HistoryConfig struct {
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size"`
}

// SetDefaults registers every key with its default value. Keys must be
// known to viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 1234)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("connection_timeout", 1)
	v.SetDefault("storage.backend", storage.BackendBolt)
	v.SetDefault("storage.path", "webterm.db")
	v.SetDefault("storage.sftp.host", "")
	v.SetDefault("storage.sftp.port", 22)
	v.SetDefault("storage.sftp.user", "")
	v.SetDefault("storage.sftp.password", "")
	v.SetDefault("storage.sftp.dir", "webterm")
	v.SetDefault("fs.quota", 5*1024*1024)
	v.SetDefault("suggest.endpoint", "https://suggestqueries.google.com/complete/search?client=firefox&q=")
	v.SetDefault("suggest.timeout", 2*time.Second)
	v.SetDefault("complete.debounce", 150*time.Millisecond)
	v.SetDefault("history.cache_ttl", 5*time.Minute)
	v.SetDefault("history.cache_size", 50)
}

// Load reads v, which may already carry bound command-line flags.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString(FileKey); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	if c.ConnectionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("connection_timeout must be positive, got %d", c.ConnectionTimeout))
	}
	switch c.Storage.Backend {
	case storage.BackendBolt:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the bolt backend"))
		}
	case storage.BackendMemory:
	case storage.BackendSFTP:
		if c.Storage.SFTP.Host == "" || c.Storage.SFTP.User == "" {
			errs = append(errs, errors.New("storage.sftp.host and storage.sftp.user are required for the sftp backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be bolt, memory or sftp", c.Storage.Backend))
	}
	if c.FS.Quota <= 0 {
		errs = append(errs, fmt.Errorf("fs.quota must be positive, got %d", c.FS.Quota))
	}
	if c.Suggest.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("suggest.timeout must be positive, got %s", c.Suggest.Timeout))
	}
	if c.Complete.Debounce < 0 {
		errs = append(errs, fmt.Errorf("complete.debounce must not be negative, got %s", c.Complete.Debounce))
	}
	if c.History.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("history.cache_size must be positive, got %d", c.History.CacheSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ConnectionTimeout) * time.Minute
}

func (c *Config) Logging() logging.Config {
	return logging.Config{Level: c.Log.Level, Format: c.Log.Format}
}

func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend: c.Storage.Backend,
		Path:    c.Storage.Path,
		SFTP: storage.SFTPConfig{
			Host:     c.Storage.SFTP.Host,
			Port:     c.Storage.SFTP.Port,
			User:     c.Storage.SFTP.User,
			Password: c.Storage.SFTP.Password,
			Dir:      c.Storage.SFTP.Dir,
		},
	}
}
