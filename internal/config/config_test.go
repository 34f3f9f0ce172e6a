package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("data-dir", "", "")
	fs.String("db", "", "")
	fs.String("key-file", "", "")
	fs.String("log-file", "", "")
	fs.String("log-format", "", "")
	fs.String("log-level", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SNIPKEEPER_DATA_DIR", dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "snipkeeper.db"), cfg.DatabaseFile)
	assert.Equal(t, filepath.Join(dir, "snipkeeper.key"), cfg.KeyFile)
	assert.Equal(t, filepath.Join(dir, "session"), cfg.SessionFile)
	assert.Equal(t, filepath.Join(dir, "backups"), cfg.Backup.Dir)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Equal(t, 10*time.Minute, cfg.HousekeepingInterval)
	assert.Equal(t, TargetNone, cfg.Backup.Target)
	assert.Equal(t, "us-east-1", cfg.Backup.S3.Region)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{
		"data_dir": "`+filepath.ToSlash(dir)+`",
		"log_level": "warn",
		"log_format": "json",
		"cache_size": 64,
		"housekeeping_interval": "30m",
		"backup": {"target": "s3", "interval": "6h", "s3": {"bucket": "snips", "endpoint": "http://minio:9000"}}
	}`), 0o600))

	t.Setenv("SNIPKEEPER_LOG_LEVEL", "debug")
	t.Setenv("SNIPKEEPER_BACKUP_S3_PREFIX", "laptop")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--db", "/tmp/other.db", "--log-format", "zap"}))

	cfg, err := Load(file, fs)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "zap", cfg.LogFormat)
	assert.Equal(t, "/tmp/other.db", cfg.DatabaseFile)
	assert.Equal(t, filepath.Join(dir, "snipkeeper.key"), cfg.KeyFile)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, 30*time.Minute, cfg.HousekeepingInterval)
	assert.Equal(t, TargetS3, cfg.Backup.Target)
	assert.Equal(t, 6*time.Hour, cfg.Backup.Interval)
	assert.Equal(t, "snips", cfg.Backup.S3.Bucket)
	assert.Equal(t, "http://minio:9000", cfg.Backup.S3.Endpoint)
	assert.Equal(t, "laptop", cfg.Backup.S3.Prefix)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SNIPKEEPER_DATA_DIR", dir)
	t.Setenv("SNIPKEEPER_LOG_FORMAT", "json")

	fs := newFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("SNIPKEEPER_DATA_DIR", t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = Load(bad, nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{LogFormat: "text", CacheSize: 1, HousekeepingInterval: time.Minute}
	}

	c := valid()
	require.NoError(t, c.Validate())

	cases := map[string]func(*Config){
		"format":    func(c *Config) { c.LogFormat = "xml" },
		"cache":     func(c *Config) { c.CacheSize = 0 },
		"interval":  func(c *Config) { c.HousekeepingInterval = 0 },
		"target":    func(c *Config) { c.Backup.Target = "ftp" },
		"s3 bucket": func(c *Config) { c.Backup.Target = TargetS3 },
		"backup":    func(c *Config) { c.Backup.Interval = -time.Second },
	}
	for name, mutate := range cases {
		c := valid()
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}
