package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging and FPS output")
	flagModel      = flag.String("model", "", "Model URL or local .glb path")
	flagWatch      = flag.Bool("watch", false, "Reload the model when the local file changes")
	flagAddr       = flag.String("addr", "", "Hand-off server listen address")
	flagPublicURL  = flag.String("public-url", "", "Base URL phones use to reach the hand-off server")
	flagNoHandoff  = flag.Bool("no-handoff", false, "Disable the hand-off server")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Viewer.ShowFPS = true
	}
	if *flagModel != "" {
		cfg.Model.URL = *flagModel
	}
	if *flagWatch {
		cfg.Model.Watch = true
	}
	if *flagAddr != "" {
		cfg.Handoff.Addr = *flagAddr
	}
	if *flagPublicURL != "" {
		cfg.Handoff.PublicURL = *flagPublicURL
	}
	if *flagNoHandoff {
		cfg.Handoff.Enabled = false
	}
	if *flagWindowed {
		cfg.Viewer.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Viewer.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
}
