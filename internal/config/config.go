package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/monokit-dev/monokit/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys.
const (
	KeyRegistry       = "registry"
	KeyRegistryToken  = "registry_token"
	KeyConcurrency    = "concurrency"
	KeyTimeout        = "timeout"
	KeyPackageManager = "package_manager"
	KeyCatalog        = "catalog"
	KeyLogLevel       = "log_level"
	KeyTemplatesDir   = "templates_dir"
	KeyCacheTTL       = "cache_ttl"
	KeyUpdateCheck    = "update_check"
)

// Keys lists every supported key.
var Keys = []string{
	KeyRegistry,
	KeyRegistryToken,
	KeyConcurrency,
	KeyTimeout,
	KeyPackageManager,
	KeyCatalog,
	KeyLogLevel,
	KeyTemplatesDir,
	KeyCacheTTL,
	KeyUpdateCheck,
}

// Settings is a typed snapshot of the effective configuration.
type Settings struct {
	Registry       string
	RegistryToken  string
	Concurrency    int
	Timeout        time.Duration
	PackageManager string
	Catalog        bool
	LogLevel       string
	TemplatesDir   string
	CacheTTL       time.Duration
	UpdateCheck    bool
}

// Dir returns the path to the config directory (~/.monokit/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.monokit/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyRegistry, branding.DefaultRegistry())
	v.SetDefault(KeyConcurrency, 8)
	v.SetDefault(KeyTimeout, "30s")
	v.SetDefault(KeyPackageManager, "pnpm")
	v.SetDefault(KeyCatalog, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCacheTTL, "1h")
	v.SetDefault(KeyUpdateCheck, true)
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	setDefaults(viper.GetViper())
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Current returns the effective settings from the global Viper instance.
func Current() Settings {
	return settingsFrom(viper.GetViper())
}

func settingsFrom(v *viper.Viper) Settings {
	s := Settings{
		Registry:       v.GetString(KeyRegistry),
		RegistryToken:  v.GetString(KeyRegistryToken),
		Concurrency:    v.GetInt(KeyConcurrency),
		Timeout:        v.GetDuration(KeyTimeout),
		PackageManager: v.GetString(KeyPackageManager),
		Catalog:        v.GetBool(KeyCatalog),
		LogLevel:       v.GetString(KeyLogLevel),
		TemplatesDir:   v.GetString(KeyTemplatesDir),
		CacheTTL:       v.GetDuration(KeyCacheTTL),
		UpdateCheck:    v.GetBool(KeyUpdateCheck),
	}
	if s.Concurrency < 1 {
		s.Concurrency = 1
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	return s
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
