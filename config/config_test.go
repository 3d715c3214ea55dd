package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webterm/storage"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 1234, cfg.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, time.Minute, cfg.Timeout())
	assert.Equal(t, storage.BackendBolt, cfg.Storage.Backend)
	assert.Equal(t, "webterm.db", cfg.Storage.Path)
	assert.Equal(t, int64(5*1024*1024), cfg.FS.Quota)
	assert.Equal(t, 2*time.Second, cfg.Suggest.Timeout)
	assert.Equal(t, 150*time.Millisecond, cfg.Complete.Debounce)
	assert.Equal(t, 5*time.Minute, cfg.History.CacheTTL)
	assert.Equal(t, 50, cfg.History.CacheSize)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("WEBTERM_PORT", "8080")
	t.Setenv("WEBTERM_CONNECTION_TIMEOUT", "5")
	t.Setenv("WEBTERM_STORAGE_BACKEND", "memory")
	t.Setenv("WEBTERM_SUGGEST_TIMEOUT", "500ms")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.Timeout())
	assert.Equal(t, storage.BackendMemory, cfg.StorageConfig().Backend)
	assert.Equal(t, 500*time.Millisecond, cfg.Suggest.Timeout)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webterm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
log:
  level: debug
  format: json
storage:
  backend: sftp
  sftp:
    host: files.example.com
    user: webterm
fs:
  quota: 1048576
`), 0o600))

	v := viper.New()
	v.Set(FileKey, path)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.Logging().Level)
	assert.Equal(t, "json", cfg.Logging().Format)
	sc := cfg.StorageConfig()
	assert.Equal(t, storage.BackendSFTP, sc.Backend)
	assert.Equal(t, "files.example.com", sc.SFTP.Host)
	assert.Equal(t, 22, sc.SFTP.Port)
	assert.Equal(t, int64(1<<20), cfg.FS.Quota)
}

func TestMissingConfigFile(t *testing.T) {
	v := viper.New()
	v.Set(FileKey, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load(v)
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]struct {
		key, value, want string
	}{
		"port":    {"port", "70000", "port 70000 out of range"},
		"level":   {"log.level", "loud", "log.level"},
		"format":  {"log.format", "xml", "log.format"},
		"backend": {"storage.backend", "s3", "storage.backend"},
		"sftp":    {"storage.backend", "sftp", "storage.sftp.host"},
		"quota":   {"fs.quota", "0", "fs.quota"},
		"timeout": {"connection_timeout", "0", "connection_timeout"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
