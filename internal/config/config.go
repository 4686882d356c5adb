package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds the application configuration
type Config struct {
	LogLevel      string `json:"log_level"`      // zerolog level name
	LogFile       string `json:"log_file"`       // Path to the rotated log file, "" disables
	OverridesPath string `json:"overrides_path"` // Path to the display-name overrides file
	FirstRun      bool   `json:"-"`              // Is this the first run?
}

// configFileName is the name of the config file
const configFileName = "axec.json"

// Default returns the default configuration
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		LogFile:       filepath.Join(ConfigDir(), "axec.log"),
		OverridesPath: "", // Empty = default overrides location
		FirstRun:      true,
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// ConfigDir returns the directory containing axec config files
func ConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "axec")
}

// Load loads the configuration from file
func Load() (*Config, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			// First run - return default config
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.FirstRun = false
	return cfg, nil
}

// Save saves the configuration to file
func (c *Config) Save() error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
