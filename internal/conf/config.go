// config.go: settings struct and functions to load the CoralWatch configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// WebServerSettings contains settings for the HTTP server.
type WebServerSettings struct {
	Host string // interface to bind to
	Port int    // port to listen on
	Log  struct {
		Enabled bool   // true to write an access log file
		Path    string // access log file path
	}
}

// OutputSettings contains settings for the backing store.
type OutputSettings struct {
	SQLite struct {
		Path string // path to the SQLite database file
	}
}

// UploadSettings contains settings for image uploads.
type UploadSettings struct {
	Path        string // directory where uploaded images are stored
	MaxSizeMB   int    // maximum accepted upload size in megabytes
	ServeImages bool   // expose uploaded images over the API
}

// Settings is the top level configuration for the application.
type Settings struct {
	Debug bool // true to enable debug level logging

	WebServer WebServerSettings
	Output    OutputSettings
	Upload    UploadSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first
// default config path and re-reads it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetDefaultConfigPaths returns the locations searched for config.yaml,
// in priority order: working directory first, then the user config dir.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// fall back to working directory only
		return []string{"."}, nil //nolint:nilerr // missing HOME is not fatal
	}
	return []string{".", filepath.Join(configDir, "coralwatch")}, nil
}

// ValidateSettings checks a Settings instance for values the server
// cannot start with.
func ValidateSettings(settings *Settings) error {
	if settings.WebServer.Port < 1 || settings.WebServer.Port > 65535 {
		return fmt.Errorf("webserver.port must be between 1 and 65535, got %d", settings.WebServer.Port)
	}
	if settings.Output.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path must not be empty")
	}
	if settings.Upload.Path == "" {
		return fmt.Errorf("upload.path must not be empty")
	}
	if settings.Upload.MaxSizeMB < 1 {
		return fmt.Errorf("upload.maxsizemb must be at least 1, got %d", settings.Upload.MaxSizeMB)
	}
	return nil
}

// GetSettings returns the current settings instance.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
