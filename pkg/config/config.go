// Package config handles loading and saving tspview configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/tspview/config.yaml
//
// Precedence, lowest first: built-in defaults, the config file, environment
// (TSPVIEW_ENDPOINT), then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/tspview/pkg/geom"
	"github.com/vanderheijden86/tspview/pkg/interact"
	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/scene"
	"github.com/vanderheijden86/tspview/pkg/transport"

	"gopkg.in/yaml.v3"
)

// Environment variables read by the config layer.
const (
	EnvConfig   = "TSPVIEW_CONFIG"
	EnvEndpoint = "TSPVIEW_ENDPOINT"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// SurfaceConfig is the size of the raster and vector surfaces.
type SurfaceConfig struct {
	Width  int     `yaml:"width,omitempty"`
	Height int     `yaml:"height,omitempty"`
	Margin float64 `yaml:"margin,omitempty"`
}

// InteractionConfig holds the pointer thresholds, in surface pixels.
type InteractionConfig struct {
	HoverTolerance float64       `yaml:"hover_tolerance,omitempty"`
	ClickTolerance float64       `yaml:"click_tolerance,omitempty"`
	LabelRadius    float64       `yaml:"label_radius,omitempty"`
	SelectionTTL   time.Duration `yaml:"selection_ttl,omitempty"`
}

// Config is the top-level configuration for tspview.
type Config struct {
	Endpoint    string             `yaml:"endpoint,omitempty"`
	Surface     SurfaceConfig      `yaml:"surface,omitempty"`
	Interaction InteractionConfig  `yaml:"interaction,omitempty"`
	Palette     []string           `yaml:"palette,omitempty"` // hex colors, cycled by route index
	Solver      model.SolverParams `yaml:"solver,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Endpoint: transport.DefaultEndpoint,
		Surface: SurfaceConfig{
			Width:  800,
			Height: 600,
			Margin: scene.DefaultMargin,
		},
		Interaction: InteractionConfig{
			HoverTolerance: scene.DefaultHoverTolerance,
			ClickTolerance: scene.DefaultClickTolerance,
			LabelRadius:    scene.DefaultLabelRadius,
			SelectionTTL:   interact.DefaultSelectionTTL,
		},
	}
}

// ConfigDir returns the XDG config directory for tspview.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "tspview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tspview")
}

// ConfigPath returns the config file to read: $TSPVIEW_CONFIG when set,
// otherwise config.yaml in ConfigDir.
func ConfigPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return expandHome(p)
	}
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config from ConfigPath and applies the environment.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()
	if path := ConfigPath(); path != "" {
		var err error
		if cfg, err = LoadFrom(path); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

// LoadFrom reads config from a specific path. Fields absent from the file
// keep their defaults. Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from the environment, read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if ep := strings.TrimSpace(getenv(EnvEndpoint)); ep != "" {
		c.Endpoint = ep
	}
}

// Validate checks the config for values the renderer cannot use.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is empty", ErrInvalid)
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("%w: surface must be positive, got %dx%d", ErrInvalid, c.Surface.Width, c.Surface.Height)
	}
	if c.Surface.Margin < 0 || 2*c.Surface.Margin >= float64(min(c.Surface.Width, c.Surface.Height)) {
		return fmt.Errorf("%w: margin %.0f leaves no drawable area", ErrInvalid, c.Surface.Margin)
	}
	in := c.Interaction
	if in.HoverTolerance < 0 || in.ClickTolerance < 0 || in.LabelRadius < 0 {
		return fmt.Errorf("%w: tolerances must not be negative", ErrInvalid)
	}
	if in.SelectionTTL < 0 {
		return fmt.Errorf("%w: selection_ttl must not be negative", ErrInvalid)
	}
	if _, err := scene.ParsePalette(c.Palette); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// SceneOptions returns scene options for a surface of width x height pixels,
// using the configured margin, palette and thresholds.
func (c Config) SceneOptions(width, height float64) (scene.Options, error) {
	palette, err := scene.ParsePalette(c.Palette)
	if err != nil {
		return scene.Options{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return scene.Options{
		Viewport:       geom.Viewport{Width: width, Height: height, Margin: c.Surface.Margin},
		Palette:        palette,
		HoverTolerance: c.Interaction.HoverTolerance,
		ClickTolerance: c.Interaction.ClickTolerance,
		LabelRadius:    c.Interaction.LabelRadius,
	}, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
