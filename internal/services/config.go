package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bitcore/internal/logchannel"
)

// ConfigurationService resolves configuration with the precedence
// explicit flag > environment variable > .env file > default, and owns
// the storage directory every file-backed service writes under.
type ConfigurationService struct {
	initialized bool
	storageDir  string
}

// NewConfigurationService creates the configuration service.
func NewConfigurationService() *ConfigurationService {
	return &ConfigurationService{}
}

// Name returns "configuration".
func (c *ConfigurationService) Name() string {
	return "configuration"
}

// Initialize loads .env (when present), binds the BITCORE_* environment,
// resolves the storage directory, and arms debug mode on the log channel.
func (c *ConfigurationService) Initialize() error {
	if c.initialized {
		return nil
	}

	// .env is optional; environment variables win over it.
	_ = godotenv.Load()

	viper.SetEnvPrefix("BITCORE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	dir := os.Getenv("BITCORE_STORAGE_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".bitcore")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create storage directory %s: %w", dir, err)
	}
	c.storageDir = dir

	logchannel.Default.SetDebug(DebugMode())

	c.initialized = true
	return nil
}

// StorageDir returns the resolved storage directory.
func (c *ConfigurationService) StorageDir() string {
	return c.storageDir
}

// GetValue reads a configuration value by key, preferring viper's bound
// sources over the raw environment.
func (c *ConfigurationService) GetValue(key string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return os.Getenv(key)
}

// DebugMode reports whether DEBUG_MODE requests debug logging.
func DebugMode() bool {
	v := os.Getenv("DEBUG_MODE")
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		// Any non-empty, non-boolean value counts as enabled.
		return true
	}
	return b
}

// GetConfigurationService resolves the configuration service from the
// global registry.
func GetConfigurationService() (*ConfigurationService, error) {
	service, err := GetGlobalRegistry().GetService("configuration")
	if err != nil {
		return nil, err
	}
	cfg, ok := service.(*ConfigurationService)
	if !ok {
		return nil, fmt.Errorf("configuration service has incorrect type")
	}
	return cfg, nil
}
