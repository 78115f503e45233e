package docmerge

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "info", config.LogLevel)
	assert.False(t, config.StrictMode)
	assert.False(t, config.DisablePageBreak)
	assert.False(t, config.DisableNamespaceMerge)
	assert.Equal(t, DefaultCompressionLevel, config.CompressionLevel)
	assert.Equal(t, int64(256<<20), config.MaxPartSize)
	assert.NoError(t, config.Validate())
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("DOCMERGE_LOG_LEVEL", "DEBUG")
	t.Setenv("DOCMERGE_STRICT_MODE", "yes")
	t.Setenv("DOCMERGE_DISABLE_PAGE_BREAK", "1")
	t.Setenv("DOCMERGE_MAX_PART_SIZE", "1024")
	t.Setenv("DOCMERGE_COMPRESSION_LEVEL", "9")
	t.Setenv("DOCMERGE_CONCURRENCY", "not-a-number")
	t.Setenv("DOCMERGE_CACHE_TTL", "90s")

	config := ConfigFromEnvironment()
	assert.Equal(t, "debug", config.LogLevel)
	assert.True(t, config.StrictMode)
	assert.True(t, config.DisablePageBreak)
	assert.False(t, config.DisableNamespaceMerge)
	assert.Equal(t, int64(1024), config.MaxPartSize)
	assert.Equal(t, 9, config.CompressionLevel)
	assert.Equal(t, 4, config.Concurrency, "invalid values keep the default")
	assert.Equal(t, 90*time.Second, config.CacheTTL)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(c *Config) {}},
		{name: "log level", modify: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "invalid log level: verbose"},
		{name: "part size", modify: func(c *Config) { c.MaxPartSize = 0 }, wantErr: "max part size must be positive"},
		{name: "compression", modify: func(c *Config) { c.CompressionLevel = 10 }, wantErr: "compression level must be between -2 and 9"},
		{name: "concurrency", modify: func(c *Config) { c.Concurrency = -1 }, wantErr: "concurrency must be positive"},
		{name: "cache disabled", modify: func(c *Config) { c.CacheMaxSize = -1 }},
		{name: "cache ttl", modify: func(c *Config) { c.CacheTTL = -time.Second }, wantErr: "cache TTL cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestNewConfigWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultConfig(), NewConfigWithDefaults(nil))

	overrides := &Config{StrictMode: true}
	config := NewConfigWithDefaults(overrides)
	expected := DefaultConfig()
	expected.StrictMode = true
	assert.Equal(t, expected, config, "a partial config behaves like the defaults for every unset field")
	assert.Empty(t, overrides.LogLevel, "overrides are not modified")

	config = NewConfigWithDefaults(&Config{CompressionLevel: 1, CacheMaxSize: -1, DisablePageBreak: true})
	assert.Equal(t, 1, config.CompressionLevel)
	assert.Equal(t, -1, config.CacheMaxSize, "a negative cache size disables caching")
	assert.True(t, config.DisablePageBreak)
	assert.False(t, config.DisableNamespaceMerge)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: warn
strict_mode: true
concurrency: 2
cache_ttl: 5m
`), 0o644))

	config, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", config.LogLevel)
	assert.True(t, config.StrictMode)
	assert.Equal(t, 2, config.Concurrency)
	assert.Equal(t, 5*time.Minute, config.CacheTTL)
	assert.False(t, config.DisablePageBreak, "keys absent from the file keep their defaults")
	assert.Equal(t, DefaultCompressionLevel, config.CompressionLevel)

	t.Setenv("DOCMERGE_CONCURRENCY", "8")
	config, err = LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, config.Concurrency, "environment overrides the file")

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)

	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed"), 0o644))
	_, err = LoadConfigFile(path)
	assert.Error(t, err)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("strict_mode: true\n"), 0o644))

	assert.Equal(t, explicit, FindConfigFile(explicit))
	assert.Empty(t, FindConfigFile(filepath.Join(dir, "nope.yaml")))

	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("{}"), 0o644))
	found := FindConfigFile("")
	assert.Equal(t, DefaultConfigFile, filepath.Base(found))
}

func TestGlobalConfig(t *testing.T) {
	original := GetGlobalConfig()
	defer SetGlobalConfig(original)

	config := DefaultConfig()
	config.LogLevel = "error"
	SetGlobalConfig(config)

	got := GetGlobalConfig()
	assert.Equal(t, "error", got.LogLevel)
	assert.Equal(t, LogError, GetLogger().Level())

	got.LogLevel = "debug"
	assert.Equal(t, "error", GetGlobalConfig().LogLevel, "returned config is a copy")
}
