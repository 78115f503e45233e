package docmerge

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName is used for the config directory below $XDG_CONFIG_HOME.
const AppName = "docmerge"

// DefaultConfigFile is looked up in the working directory before the XDG location.
const DefaultConfigFile = ".docmerge.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Config contains all configuration options for the merge engine
type Config struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `yaml:"log_level"`
	// StrictMode turns warnings (missing boundary, uncopied targets) into errors
	StrictMode bool `yaml:"strict_mode"`
	// DisablePageBreak lets the spliced body content continue on the cover's last page
	DisablePageBreak bool `yaml:"disable_page_break"`
	// DisableNamespaceMerge keeps the body's namespace declarations off the cover root
	DisableNamespaceMerge bool `yaml:"disable_namespace_merge"`
	// MaxPartSize is the largest uncompressed part accepted by the loader, in bytes
	MaxPartSize int64 `yaml:"max_part_size"`
	// CompressionLevel is the flate level for the output archive (-2..9). 0 takes the default level.
	CompressionLevel int `yaml:"compression_level"`
	// Concurrency limits how many merges MergeBatch runs at once
	Concurrency int `yaml:"concurrency"`
	// CacheMaxSize is the number of loaded packages kept by PackageCache. 0 takes the default
	// size and a negative value disables caching.
	CacheMaxSize int `yaml:"cache_max_size"`
	// CacheTTL is the time-to-live for cached packages. 0 means no expiration.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

var (
	globalConfig      *Config
	globalConfigMutex sync.RWMutex
	configOnce        sync.Once
)

func init() {
	// Initialize global config from environment on first use
	configOnce.Do(func() {
		globalConfig = ConfigFromEnvironment()
	})
}

// DefaultCompressionLevel is the flate level used when Config.CompressionLevel is 0.
const DefaultCompressionLevel = 6

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		StrictMode:       false,
		MaxPartSize:      256 << 20,
		CompressionLevel: DefaultCompressionLevel,
		Concurrency:      4,
		CacheMaxSize:     8,
		CacheTTL:         0,
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()
	applyEnvironment(config)
	return config
}

func applyEnvironment(config *Config) {
	// DOCMERGE_LOG_LEVEL
	if val := os.Getenv("DOCMERGE_LOG_LEVEL"); val != "" {
		config.LogLevel = strings.ToLower(val)
	}

	// DOCMERGE_STRICT_MODE
	if val := os.Getenv("DOCMERGE_STRICT_MODE"); val != "" {
		config.StrictMode = parseBool(val)
	}

	// DOCMERGE_DISABLE_PAGE_BREAK
	if val := os.Getenv("DOCMERGE_DISABLE_PAGE_BREAK"); val != "" {
		config.DisablePageBreak = parseBool(val)
	}

	// DOCMERGE_DISABLE_NAMESPACE_MERGE
	if val := os.Getenv("DOCMERGE_DISABLE_NAMESPACE_MERGE"); val != "" {
		config.DisableNamespaceMerge = parseBool(val)
	}

	// DOCMERGE_MAX_PART_SIZE
	if val := os.Getenv("DOCMERGE_MAX_PART_SIZE"); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.MaxPartSize = size
		}
	}

	// DOCMERGE_COMPRESSION_LEVEL
	if val := os.Getenv("DOCMERGE_COMPRESSION_LEVEL"); val != "" {
		if level, err := strconv.Atoi(val); err == nil {
			config.CompressionLevel = level
		}
	}

	// DOCMERGE_CONCURRENCY
	if val := os.Getenv("DOCMERGE_CONCURRENCY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Concurrency = n
		}
	}

	// DOCMERGE_CACHE_MAX_SIZE
	if val := os.Getenv("DOCMERGE_CACHE_MAX_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.CacheMaxSize = size
		}
	}

	// DOCMERGE_CACHE_TTL
	if val := os.Getenv("DOCMERGE_CACHE_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			config.CacheTTL = ttl
		}
	}
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	// Create a copy of the overrides
	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if config.MaxPartSize == 0 {
		config.MaxPartSize = defaults.MaxPartSize
	}

	if config.Concurrency == 0 {
		config.Concurrency = defaults.Concurrency
	}

	if config.CompressionLevel == 0 {
		config.CompressionLevel = defaults.CompressionLevel
	}

	if config.CacheMaxSize == 0 {
		config.CacheMaxSize = defaults.CacheMaxSize
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxPartSize <= 0 {
		return errors.New("max part size must be positive")
	}

	if c.CompressionLevel < -2 || c.CompressionLevel > 9 {
		return errors.New("compression level must be between -2 and 9")
	}

	if c.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}

	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}

	return nil
}

// LoadConfigFile reads a YAML configuration file. Keys absent from the file keep their
// default values, and DOCMERGE_* environment variables override the file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	applyEnvironment(config)

	return config, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .docmerge.yaml in the current directory
// 3. Look for config.yaml in $XDG_CONFIG_HOME/docmerge
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	candidate := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}

	return ""
}

// ConfigDir returns the directory for docmerge configuration files.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// GetGlobalConfig returns the global configuration
func GetGlobalConfig() *Config {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()

	if globalConfig == nil {
		return DefaultConfig()
	}

	// Return a copy to prevent modification
	configCopy := *globalConfig
	return &configCopy
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config *Config) {
	globalConfigMutex.Lock()
	globalConfig = config
	globalConfigMutex.Unlock()

	// Update logger based on new config (outside the lock to avoid deadlock)
	UpdateLoggerFromConfig()
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
