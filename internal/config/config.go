// Package config loads runtime settings: defaults, then an optional JSON
// file, then SNIPKEEPER_* environment variables, then command-line flags.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/filex"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SNIPKEEPER"

// Backup targets.
const (
	TargetNone = ""
	TargetFile = "file"
	TargetS3   = "s3"
)

type S3 struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Backup configures where snapshots go and how often. A zero Interval and
// empty DailyAt disable scheduled backups.
type Backup struct {
	Target   string        `mapstructure:"target"`
	Dir      string        `mapstructure:"dir"`
	Interval time.Duration `mapstructure:"interval"`
	DailyAt  string        `mapstructure:"daily_at"`
	S3       S3            `mapstructure:"s3"`
}

// Config holds runtime settings. File paths are absolute once loaded;
// relative ones are resolved under DataDir.
type Config struct {
	DataDir              string        `mapstructure:"data_dir"`
	DatabaseFile         string        `mapstructure:"database_file"`
	KeyFile              string        `mapstructure:"key_file"`
	SessionFile          string        `mapstructure:"session_file"`
	LogFile              string        `mapstructure:"log_file"`
	LogFormat            string        `mapstructure:"log_format"`
	LogLevel             string        `mapstructure:"log_level"`
	CacheSize            int           `mapstructure:"cache_size"`
	HousekeepingInterval time.Duration `mapstructure:"housekeeping_interval"`
	Backup               Backup        `mapstructure:"backup"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":   "data_dir",
	"db":         "database_file",
	"key-file":   "key_file",
	"log-file":   "log_file",
	"log-format": "log_format",
	"log-level":  "log_level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "~/.snipkeeper")
	v.SetDefault("database_file", "snipkeeper.db")
	v.SetDefault("key_file", "snipkeeper.key")
	v.SetDefault("session_file", "session")
	v.SetDefault("log_file", "")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_level", "info")
	v.SetDefault("cache_size", 256)
	v.SetDefault("housekeeping_interval", 10*time.Minute)
	v.SetDefault("backup.target", TargetNone)
	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.interval", time.Duration(0))
	v.SetDefault("backup.daily_at", "")
	v.SetDefault("backup.s3.bucket", "")
	v.SetDefault("backup.s3.region", "us-east-1")
	v.SetDefault("backup.s3.endpoint", "")
	v.SetDefault("backup.s3.access_key", "")
	v.SetDefault("backup.s3.secret_key", "")
	v.SetDefault("backup.s3.prefix", "")
}

// Load builds a Config. file may be empty; flags may be nil. Only flags
// the user actually set override the other sources.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) resolve() error {
	dir, err := filepath.Abs(filex.ExpandHome(c.DataDir))
	if err != nil {
		return err
	}
	c.DataDir = dir
	c.DatabaseFile = filex.Resolve(dir, c.DatabaseFile)
	c.KeyFile = filex.Resolve(dir, c.KeyFile)
	c.SessionFile = filex.Resolve(dir, c.SessionFile)
	c.LogFile = filex.Resolve(dir, c.LogFile)
	c.Backup.Dir = filex.Resolve(dir, c.Backup.Dir)
	return nil
}

func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json", "zap":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	if c.HousekeepingInterval <= 0 {
		return fmt.Errorf("housekeeping_interval must be positive")
	}
	switch c.Backup.Target {
	case TargetNone, TargetFile:
	case TargetS3:
		if c.Backup.S3.Bucket == "" {
			return fmt.Errorf("backup.s3.bucket is required for the s3 target")
		}
	default:
		return fmt.Errorf("unknown backup.target %q", c.Backup.Target)
	}
	if c.Backup.Interval < 0 {
		return fmt.Errorf("backup.interval must not be negative")
	}
	return nil
}
