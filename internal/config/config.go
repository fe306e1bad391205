// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"slices"
)

// ExportFormats lists the image formats the atlas exporter can write.
var ExportFormats = []string{"png", "bmp", "tga", "webp"}

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Map      MapConfig      `yaml:"map"`
	Camera   CameraConfig   `yaml:"camera"`
	Export   ExportConfig   `yaml:"export"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOV        float32 `yaml:"fov"`  // vertical, degrees
	MSAA       int     `yaml:"msaa"` // samples per pixel, 0 disables
}

// MapConfig controls how map files are loaded.
type MapConfig struct {
	HDR            bool `yaml:"hdr"`
	StrictEntities bool `yaml:"strict_entities"` // malformed entities abort the load
	AtlasMaxSize   int  `yaml:"atlas_max_size"`  // per side; 0 disables the cap
}

// CameraConfig holds fly camera settings.
type CameraConfig struct {
	Speed       float32 `yaml:"speed"`       // meters per second
	Sensitivity float32 `yaml:"sensitivity"` // radians per pixel
}

// ExportConfig holds lightmap atlas export settings.
type ExportConfig struct {
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
			FOV:    70,
			MSAA:   4,
		},
		Map: MapConfig{
			AtlasMaxSize: 16384,
		},
		Camera: CameraConfig{
			Speed:       8,
			Sensitivity: 0.004,
		},
		Export: ExportConfig{
			Format: "png",
			Dir:    "atlases",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height)
	}
	if c.Graphics.FOV <= 0 || c.Graphics.FOV >= 180 {
		return fmt.Errorf("graphics: fov %g out of range (0, 180)", c.Graphics.FOV)
	}
	if c.Graphics.MSAA < 0 || c.Graphics.MSAA > 16 {
		return fmt.Errorf("graphics: msaa %d out of range [0, 16]", c.Graphics.MSAA)
	}
	if c.Map.AtlasMaxSize < 0 {
		return fmt.Errorf("map: atlas_max_size must not be negative, got %d", c.Map.AtlasMaxSize)
	}
	if c.Camera.Speed <= 0 {
		return fmt.Errorf("camera: speed must be positive, got %g", c.Camera.Speed)
	}
	if !slices.Contains(ExportFormats, c.Export.Format) {
		return fmt.Errorf("export: unknown format %q (want one of %v)", c.Export.Format, ExportFormats)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	return nil
}
