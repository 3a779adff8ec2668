// Package config holds the run settings: defaults, an optional JSON file and
// command-line overrides, validated together before anything is opened.
package config

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"fmtts/capture"
	"fmtts/display"
	"fmtts/strategy"
	"fmtts/tracking"
	"fmtts/transform"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Point is a pixel position in the config file.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Image converts p to an image.Point.
func (p Point) Image() image.Point { return image.Point{X: p.X, Y: p.Y} }

// Config is the complete set of run settings.
type Config struct {
	Input       string `json:"input,omitempty"`
	Tracker     string `json:"tracker"`
	Anchor      string `json:"anchor"`
	FrameMode   string `json:"frame_mode"`
	Floor       int    `json:"floor"`
	Highlight   string `json:"highlight"` // hex color like "#60ff60"
	Seed        int64  `json:"seed"`
	Reference   *Point `json:"reference,omitempty"` // nil means the frame center
	Target      Point  `json:"target"`
	Workers     int    `json:"workers"`
	ReadRetries int    `json:"read_retries"`
	RetryDelay  string `json:"retry_delay"` // duration string like "50ms"
	WindowSize  int    `json:"window_size"`
	StatsEvery  int64  `json:"stats_every"`
	Smooth      bool   `json:"smooth_anchor"`
	Debug       bool   `json:"debug"`
	Verbose     bool   `json:"verbose"`
	DebugDir    string `json:"debug_dir"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() *Config {
	hl := transform.DefaultHighlight
	return &Config{
		Tracker:     strategy.DefaultName,
		Anchor:      string(tracking.AnchorFirst),
		FrameMode:   string(capture.ModeCached),
		Floor:       int(transform.DefaultFloor),
		Highlight:   formatHexColor(hl),
		Seed:        tracking.DefaultSeed,
		Target:      Point{X: transform.DefaultTarget.X, Y: transform.DefaultTarget.Y},
		Workers:     0,
		ReadRetries: 0,
		RetryDelay:  "0s",
		WindowSize:  display.DefaultSecondarySize,
		StatsEvery:  100,
		DebugDir:    "/tmp/fmtts",
	}
}

// Load reads a JSON file over DefaultConfig. Fields missing from the file
// keep their defaults. The result is not validated; call Validate once flag
// overrides are applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, errors.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat config file")
	}
	if fileInfo.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config JSON")
	}
	return cfg, nil
}

// validationError marks a rejected setting. It matches ErrInvalid and
// unwraps to the error that caused the rejection.
type validationError struct {
	cause error
}

func (e *validationError) Error() string        { return ErrInvalid.Error() + ": " + e.cause.Error() }
func (e *validationError) Cause() error         { return e.cause }
func (e *validationError) Unwrap() error        { return e.cause }
func (e *validationError) Is(target error) bool { return target == ErrInvalid }

func invalid(err error) error {
	return errors.WithStack(&validationError{cause: err})
}

// Validate checks every setting. Tracker names are checked against
// strategies, or the built-in registry when strategies is nil.
func (c *Config) Validate(strategies *strategy.Registry) error {
	if strategies == nil {
		strategies = strategy.Default()
	}
	if _, err := strategies.Lookup(c.Tracker); err != nil {
		return invalid(err)
	}
	if _, err := tracking.ParseAnchorPolicy(c.Anchor); err != nil {
		return invalid(err)
	}
	if _, err := capture.ParseMode(c.FrameMode); err != nil {
		return invalid(err)
	}

	if c.Floor < 0 || c.Floor > 254 {
		return errors.Wrapf(ErrInvalid, "floor must be between 0 and 254, got %d", c.Floor)
	}
	hl, err := c.HighlightColor()
	if err != nil {
		return invalid(err)
	}
	floor := uint8(c.Floor)
	if hl.R <= floor || hl.G <= floor || hl.B <= floor {
		return invalid(errors.Wrapf(transform.ErrHighlightBelowFloor, "highlight %s, floor %d", c.Highlight, c.Floor))
	}

	if c.Workers < 0 {
		return errors.Wrapf(ErrInvalid, "workers must be non-negative, got %d", c.Workers)
	}
	if c.ReadRetries < 0 {
		return errors.Wrapf(ErrInvalid, "read_retries must be non-negative, got %d", c.ReadRetries)
	}
	if c.RetryDelay != "" {
		d, err := time.ParseDuration(c.RetryDelay)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "invalid retry_delay '%s': %v", c.RetryDelay, err)
		}
		if d < 0 {
			return errors.Wrapf(ErrInvalid, "retry_delay must be non-negative, got %v", d)
		}
	}
	if c.WindowSize < 0 {
		return errors.Wrapf(ErrInvalid, "window_size must be non-negative, got %d", c.WindowSize)
	}
	if c.StatsEvery < 0 {
		return errors.Wrapf(ErrInvalid, "stats_every must be non-negative, got %d", c.StatsEvery)
	}
	if c.Debug && c.DebugDir == "" {
		return errors.Wrap(ErrInvalid, "debug_dir is required when debug is enabled")
	}
	return nil
}

// HighlightColor parses the highlight hex color.
func (c *Config) HighlightColor() (color.RGBA, error) {
	r, g, b, err := parseHexColor(c.Highlight)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// FloorValue is the brightness floor. Only meaningful after Validate.
func (c *Config) FloorValue() uint8 { return uint8(c.Floor) }

// AnchorPolicy is the parsed anchor policy. Only meaningful after Validate.
func (c *Config) AnchorPolicy() tracking.AnchorPolicy {
	p, _ := tracking.ParseAnchorPolicy(c.Anchor)
	return p
}

// Mode is the parsed frame mode. Only meaningful after Validate.
func (c *Config) Mode() capture.Mode {
	m, _ := capture.ParseMode(c.FrameMode)
	return m
}

// ReferencePoint returns the configured reference, or nil for the frame
// center.
func (c *Config) ReferencePoint() *image.Point {
	if c.Reference == nil {
		return nil
	}
	p := c.Reference.Image()
	return &p
}

// GetRetryDelay parses RetryDelay, returning 0 when unset or invalid.
func (c *Config) GetRetryDelay() time.Duration {
	if c.RetryDelay == "" {
		return 0
	}
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return 0
	}
	return d
}

// parseHexColor converts hex color string to RGB values
func parseHexColor(hexColor string) (r, g, b uint8, err error) {
	// Remove # if present
	hexColor = strings.TrimPrefix(hexColor, "#")

	if len(hexColor) != 6 {
		return 0, 0, 0, errors.Errorf("invalid hex color format: %s", hexColor)
	}

	rgb, err := strconv.ParseUint(hexColor, 16, 32)
	if err != nil {
		return 0, 0, 0, errors.Wrapf(err, "failed to parse hex color %s", hexColor)
	}

	r = uint8((rgb >> 16) & 0xFF)
	g = uint8((rgb >> 8) & 0xFF)
	b = uint8(rgb & 0xFF)

	return r, g, b, nil
}

func formatHexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
