// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// Config holds all viewer settings.
type Config struct {
	Display  DisplayConfig  `yaml:"display"`
	Scene    SceneConfig    `yaml:"scene"`
	Assets   AssetsConfig   `yaml:"assets"`
	Tracking TrackingConfig `yaml:"tracking"`
	Capture  CaptureConfig  `yaml:"capture"`
	Audio    AudioConfig    `yaml:"audio"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DisplayConfig holds window settings.
type DisplayConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	ClearColor [4]float32 `yaml:"clear_color"`
}

// SceneConfig holds placement and selection settings.
type SceneConfig struct {
	MaxObjects       int      `yaml:"max_objects"`
	GestureQueueSize int      `yaml:"gesture_queue_size"`
	DefaultKind      string   `yaml:"default_kind"`
	DefaultColor     [4]uint8 `yaml:"default_color"`
	SelectedColor    [4]uint8 `yaml:"selected_color"`
	ShowSelectionBox bool     `yaml:"show_selection_box"`
}

// KindConfig declares one placeable object kind.
type KindConfig struct {
	Name     string `yaml:"name"`
	Mesh     string `yaml:"mesh"`
	Texture  string `yaml:"texture,omitempty"`
	Material string `yaml:"material,omitempty"`
}

// AssetsConfig locates mesh, texture and material files.
type AssetsConfig struct {
	Dir   string       `yaml:"dir"`
	Kinds []KindConfig `yaml:"kinds"`
}

// TrackingConfig holds the simulated tracking session parameters.
type TrackingConfig struct {
	FOV            float32 `yaml:"fov"`
	Near           float32 `yaml:"near"`
	Far            float32 `yaml:"far"`
	PlaneY         float32 `yaml:"plane_y"`
	PlaneExtent    float32 `yaml:"plane_extent"`
	CameraDistance float32 `yaml:"camera_distance"`
	LightIntensity float32 `yaml:"light_intensity"`
}

// CaptureConfig holds photo output settings.
type CaptureConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
}

// AudioConfig holds feedback sound settings. Sound files live in the asset
// dir; an empty name disables that cue.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
	Place   string  `yaml:"place"`
	Select  string  `yaml:"select"`
	Shutter string  `yaml:"shutter"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Width:      1280,
			Height:     720,
			VSync:      true,
			ClearColor: [4]float32{0.08, 0.09, 0.11, 1},
		},
		Scene: SceneConfig{
			MaxObjects:       10,
			GestureQueueSize: 2,
			DefaultKind:      "cube",
			DefaultColor:     [4]uint8{66, 244, 133, 255},
			SelectedColor:    [4]uint8{66, 133, 244, 255},
			ShowSelectionBox: true,
		},
		Assets: AssetsConfig{
			Dir: "assets",
			Kinds: []KindConfig{
				{Name: "cube", Mesh: "cube.obj"},
				{Name: "crate", Mesh: "cube.obj", Texture: "crate.bmp"},
				{Name: "pyramid", Mesh: "pyramid.obj", Material: "pyramid.mtl"},
			},
		},
		Tracking: TrackingConfig{
			FOV:            60,
			Near:           0.05,
			Far:            100,
			PlaneY:         0,
			PlaneExtent:    5,
			CameraDistance: 4,
			LightIntensity: 1,
		},
		Capture: CaptureConfig{
			Dir:    "photos",
			Prefix: "arplace",
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.8,
			Place:   "place.wav",
			Select:  "select.wav",
			Shutter: "shutter.wav",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Validate checks settings the viewer cannot run without.
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("%w: display size %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	}
	if c.Scene.MaxObjects < 1 {
		return fmt.Errorf("%w: scene.max_objects must be at least 1", ErrInvalid)
	}
	if c.Scene.GestureQueueSize < 1 {
		return fmt.Errorf("%w: scene.gesture_queue_size must be at least 1", ErrInvalid)
	}
	if len(c.Assets.Kinds) == 0 {
		return fmt.Errorf("%w: no asset kinds configured", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Assets.Kinds))
	for i, k := range c.Assets.Kinds {
		if k.Name == "" || k.Mesh == "" {
			return fmt.Errorf("%w: assets.kinds[%d] needs name and mesh", ErrInvalid, i)
		}
		if seen[k.Name] {
			return fmt.Errorf("%w: duplicate kind %q", ErrInvalid, k.Name)
		}
		seen[k.Name] = true
	}
	if c.Tracking.Near <= 0 || c.Tracking.Far <= c.Tracking.Near {
		return fmt.Errorf("%w: tracking near/far %v/%v", ErrInvalid, c.Tracking.Near, c.Tracking.Far)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("%w: audio.volume %v outside [0,1]", ErrInvalid, c.Audio.Volume)
	}
	return nil
}
