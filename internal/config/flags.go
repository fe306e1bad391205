package config

import (
	"flag"
	"fmt"
	"os"
)

var (
	flagConfig      = flag.String("config", "", "Path to config file (also $"+EnvConfig+")")
	flagWriteConfig = flag.Bool("write-config", false, "Write the effective config to the user config dir and exit")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile     = flag.String("log", "", "Also write logs to this file")
	flagWindowed    = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen  = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagFOV         = flag.Float64("fov", 0, "Vertical field of view in degrees")
	flagSpeed       = flag.Float64("speed", 0, "Camera speed in meters per second")
	flagStrict      = flag.Bool("strict", false, "Abort on malformed entities")
	flagExport      = flag.String("export-format", "", "Screenshot and atlas format (png, bmp, tga, webp)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path> <hdr>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigRequested reports whether -write-config was given.
func WriteConfigRequested() bool {
	return *flagWriteConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagFOV > 0 {
		cfg.Graphics.FOV = float32(*flagFOV)
	}
	if *flagSpeed > 0 {
		cfg.Camera.Speed = float32(*flagSpeed)
	}
	if *flagStrict {
		cfg.Map.StrictEntities = true
	}
	if *flagExport != "" {
		cfg.Export.Format = *flagExport
	}
}
