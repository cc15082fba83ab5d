package arbor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phanxgames/arbor/fault"
)

// Config holds the Scene's startup settings. It is usually loaded from an
// arbor.yaml file; zero fields fall back to DefaultConfig.
type Config struct {
	Width         int     `yaml:"width,omitempty"`
	Height        int     `yaml:"height,omitempty"`
	DPI           float64 `yaml:"dpi,omitempty"`
	DirtyCapacity int     `yaml:"dirty_capacity,omitempty"`
	QueueDepth    int     `yaml:"queue_depth,omitempty"`
	Debug         bool    `yaml:"debug,omitempty"`
	ClearColor    *Color  `yaml:"clear_color,omitempty"`
	Title         string  `yaml:"title,omitempty"`

	// Logger receives scene diagnostics. Nil means slog.Default().
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns the settings used for unset fields.
func DefaultConfig() Config {
	bg := ColorWhite
	return Config{
		Width:         640,
		Height:        480,
		DPI:           1,
		DirtyCapacity: DefaultDirtyCapacity,
		QueueDepth:    64,
		ClearColor:    &bg,
		Title:         "arbor",
	}
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fault.Wrap("arbor.LoadConfig", fault.KindConfig,
			fmt.Errorf("failed to read %s: %w", path, err))
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fault.Wrap("arbor.LoadConfig", fault.KindConfig,
			fmt.Errorf("failed to parse %s: %w", path, errors.Unwrap(err)))
	}
	return cfg, nil
}

// ParseConfig decodes YAML data, fills defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fault.Wrap("arbor.ParseConfig", fault.KindConfig, err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fault.Wrap("arbor.ParseConfig", fault.KindConfig, err)
	}
	return cfg, nil
}

// Validate rejects negative sizes and non-positive DPI.
func (c Config) Validate() error {
	switch {
	case c.Width < 0 || c.Height < 0:
		return fmt.Errorf("invalid size %dx%d", c.Width, c.Height)
	case c.DPI <= 0:
		return fmt.Errorf("invalid dpi %g", c.DPI)
	case c.DirtyCapacity < 0:
		return fmt.Errorf("invalid dirty_capacity %d", c.DirtyCapacity)
	case c.QueueDepth < 0:
		return fmt.Errorf("invalid queue_depth %d", c.QueueDepth)
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Width == 0 {
		c.Width = def.Width
	}
	if c.Height == 0 {
		c.Height = def.Height
	}
	if c.DPI == 0 {
		c.DPI = def.DPI
	}
	if c.DirtyCapacity == 0 {
		c.DirtyCapacity = def.DirtyCapacity
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = def.QueueDepth
	}
	if c.ClearColor == nil {
		c.ClearColor = def.ClearColor
	}
	if c.Title == "" {
		c.Title = def.Title
	}
	return c
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
