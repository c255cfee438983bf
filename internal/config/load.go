package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < environment < flags.
// A .env file in the working directory, if present, feeds the environment.
func Load() (*Config, error) {
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies BEANBAG_* overrides. lookup is os.LookupEnv outside tests.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("BEANBAG_MODEL_URL"); ok && v != "" {
		cfg.Model.URL = v
	}
	if v, ok := lookup("BEANBAG_MODEL_WATCH"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("BEANBAG_MODEL_WATCH: %w", err)
		}
		cfg.Model.Watch = b
	}
	if v, ok := lookup("BEANBAG_HANDOFF_ADDR"); ok && v != "" {
		cfg.Handoff.Addr = v
	}
	if v, ok := lookup("BEANBAG_PUBLIC_URL"); ok && v != "" {
		cfg.Handoff.PublicURL = v
	}
	if v, ok := lookup("BEANBAG_LOG_LEVEL"); ok && v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("BEANBAG_LOG_FILE"); ok {
		cfg.Logging.LogFile = v
	}
	return nil
}

// Validate rejects settings the controllers cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Model.URL == "":
		return fmt.Errorf("model.url must be set")
	case c.Model.MaxRetries < 0:
		return fmt.Errorf("model.max_retries must not be negative")
	case c.Model.ProgressStep <= 0 || c.Model.ProgressInterval <= 0:
		return fmt.Errorf("model.progress_step and model.progress_interval must be positive")
	case c.Model.ProgressCap < 0 || c.Model.ProgressCap > 100:
		return fmt.Errorf("model.progress_cap must be within 0..100")
	case c.Model.TargetSize <= 0:
		return fmt.Errorf("model.target_size must be positive")
	case c.Animation.Duration <= 0:
		return fmt.Errorf("animation.duration must be positive")
	case c.Animation.TargetFPS <= 0:
		return fmt.Errorf("animation.target_fps must be positive")
	}
	return nil
}

// SelectionStorePath returns where the chosen cover is persisted.
func (c *Config) SelectionStorePath() string {
	if c.Selection.StorePath != "" {
		return c.Selection.StorePath
	}
	return filepath.Join(ConfigDir(), "settings.yaml")
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Beanbag")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Beanbag")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "beanbag")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "beanbag")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
