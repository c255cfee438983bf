// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Viewer    ViewerConfig    `yaml:"viewer"`
	Model     ModelConfig     `yaml:"model"`
	Animation AnimationConfig `yaml:"animation"`
	AR        ARConfig        `yaml:"ar"`
	Handoff   HandoffConfig   `yaml:"handoff"`
	Selection SelectionConfig `yaml:"selection"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ViewerConfig holds window and rendering settings.
type ViewerConfig struct {
	Title      string  `yaml:"title"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	AutoRotate float32 `yaml:"auto_rotate"` // radians per second, 0 disables
	ShowFPS    bool    `yaml:"show_fps"`

	ScreenshotDir string `yaml:"screenshot_dir"`
}

// ModelConfig holds asset loading settings.
type ModelConfig struct {
	URL              string        `yaml:"url"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	ProgressStep     int           `yaml:"progress_step"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	ProgressCap      int           `yaml:"progress_cap"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
	TargetSize       float32       `yaml:"target_size"` // longest side after normalization
	Watch            bool          `yaml:"watch"`       // reload local files on change
	WatchDebounce    time.Duration `yaml:"watch_debounce"`
}

// AnimationConfig holds color transition settings.
type AnimationConfig struct {
	Duration  time.Duration `yaml:"duration"`
	TargetFPS int           `yaml:"target_fps"`
}

// ARConfig holds AR hand-off settings.
type ARConfig struct {
	AutoActivateDelay time.Duration `yaml:"auto_activate_delay"`
	QRServiceURL      string        `yaml:"qr_service_url"`
	QRSize            string        `yaml:"qr_size"`
}

// HandoffConfig holds the hand-off HTTP server settings.
type HandoffConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	PublicURL string `yaml:"public_url"` // base URL phones use to reach Addr
}

// SelectionConfig holds where the chosen cover is remembered.
type SelectionConfig struct {
	StorePath string `yaml:"store_path"` // empty means ConfigDir()/settings.yaml
	Key       string `yaml:"key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Title:      "Bean Bag Configurator",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			AutoRotate: 0.3,
			ShowFPS:    false,

			ScreenshotDir: "screenshots",
		},
		Model: ModelConfig{
			URL:              "assets/beanbag.glb",
			MaxRetries:       3,
			RetryDelay:       2 * time.Second,
			ProgressStep:     10,
			ProgressInterval: 100 * time.Millisecond,
			ProgressCap:      90,
			SettleDelay:      300 * time.Millisecond,
			TargetSize:       2.0,
			Watch:            false,
			WatchDebounce:    250 * time.Millisecond,
		},
		Animation: AnimationConfig{
			Duration:  300 * time.Millisecond,
			TargetFPS: 30,
		},
		AR: ARConfig{
			AutoActivateDelay: 500 * time.Millisecond,
			QRServiceURL:      "https://api.qrserver.com/v1/create-qr-code/",
			QRSize:            "200x200",
		},
		Handoff: HandoffConfig{
			Enabled:   true,
			Addr:      ":8090",
			PublicURL: "http://localhost:8090",
		},
		Selection: SelectionConfig{
			StorePath: "",
			Key:       "beanbag-color",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
