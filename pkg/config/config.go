// Package config provides configuration loading and management for reorient.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"reorient/internal/models"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Session parameters
	Session struct {
		// Tool is the drag tool selected when a volume opens: Translate, Rotate or Select
		Tool string `yaml:"tool"`

		// CropMin and CropMax are the initial selection corners in millimetres
		CropMin [3]float64 `yaml:"cropMin"`
		CropMax [3]float64 `yaml:"cropMax"`
	} `yaml:"session"`

	// Canvas parameters, shared by the three views
	Canvas struct {
		// Width and Height are the intrinsic canvas resolution in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// DisplayWidth and DisplayHeight are the on-screen size in pixels
		DisplayWidth  float64 `yaml:"displayWidth"`
		DisplayHeight float64 `yaml:"displayHeight"`
	} `yaml:"canvas"`

	// Output parameters
	Output struct {
		// MatrixFile, SelectionFile and VolumeFile are the default save names
		MatrixFile    string `yaml:"matrixFile"`
		SelectionFile string `yaml:"selectionFile"`
		VolumeFile    string `yaml:"volumeFile"`

		// SlicesDir receives JPEG renders of the three views; empty disables them
		SlicesDir string `yaml:"slicesDir"`

		// Sequence is the number of evenly spaced slices saved per plane under
		// SlicesDir; 0 saves only the three centre views
		Sequence int `yaml:"sequence"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	box := models.DefaultCropBox()
	cfg.Session.Tool = models.Translate.String()
	cfg.Session.CropMin = box.Min.Array()
	cfg.Session.CropMax = box.Max.Array()

	cfg.Canvas.Width = 256
	cfg.Canvas.Height = 256
	cfg.Canvas.DisplayWidth = 256
	cfg.Canvas.DisplayHeight = 256

	cfg.Output.MatrixFile = "reorient.mat"
	cfg.Output.SelectionFile = "selection.txt"
	cfg.Output.VolumeFile = "reoriented.nii.gz"
	cfg.Output.SlicesDir = ""
	cfg.Output.Sequence = 0
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if _, err := cfg.Tool(); err != nil {
		return nil, fmt.Errorf("error in config file: %w", err)
	}
	if cfg.Output.Sequence < 0 {
		return nil, fmt.Errorf("error in config file: sequence must not be negative, got %d", cfg.Output.Sequence)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

// Tool returns the configured starting tool.
func (c *Config) Tool() (models.Tool, error) {
	return models.ParseTool(c.Session.Tool)
}

// CropBox returns the configured starting selection.
func (c *Config) CropBox() models.CropBox {
	return models.CropBox{
		Min: models.Vec3{X: c.Session.CropMin[0], Y: c.Session.CropMin[1], Z: c.Session.CropMin[2]},
		Max: models.Vec3{X: c.Session.CropMax[0], Y: c.Session.CropMax[1], Z: c.Session.CropMax[2]},
	}
}

// ViewCanvas returns the canvas every view starts with.
func (c *Config) ViewCanvas() models.Canvas {
	return models.Canvas{
		Width:  c.Canvas.Width,
		Height: c.Canvas.Height,
		Bounds: models.Rect{Width: c.Canvas.DisplayWidth, Height: c.Canvas.DisplayHeight},
	}
}
