// Package config holds the viewer settings: built-in defaults, optionally
// overridden by a TOML file and then by command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/taigrr/shadegrid/pkg/scene"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Title is the fixed window and HUD title.
const Title = "FlatGouraudPhong"

// Palette names the shape colours; see scene.LookupColor for accepted names.
type Palette struct {
	Sphere string `toml:"sphere"`
	MeshA  string `toml:"mesh_a"`
	MeshB  string `toml:"mesh_b"`
}

// Config is the full set of viewer settings.
type Config struct {
	CellSize   int     `toml:"cell_size"` // snapshot pixels per grid cell
	Title      string  `toml:"title"`
	Background string  `toml:"background"`
	Azimuth    float64 `toml:"azimuth"`   // degrees, applied before framing
	Elevation  float64 `toml:"elevation"` // degrees, applied after azimuth
	FPS        float64 `toml:"fps"`
	Palette    Palette `toml:"palette"`
}

// Default returns the settings of the stock 4x4 demo.
func Default() Config {
	p := scene.DefaultPalette()
	return Config{
		CellSize:   256,
		Title:      Title,
		Background: p.Background,
		Azimuth:    scene.DefaultAzimuth,
		Elevation:  scene.DefaultElevation,
		FPS:        30,
		Palette: Palette{
			Sphere: p.Sphere,
			MeshA:  p.MeshA,
			MeshB:  p.MeshB,
		},
	}
}

// Load reads a TOML file over the defaults. Keys the file leaves out keep
// their default; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML bytes over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("%w: %s", ErrInvalid, strict.String())
		}
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first out-of-range setting.
func (c Config) Validate() error {
	switch {
	case c.CellSize < 16 || c.CellSize > 4096:
		return fmt.Errorf("%w: cell_size %d outside [16, 4096]", ErrInvalid, c.CellSize)
	case c.FPS <= 0 || c.FPS > 240:
		return fmt.Errorf("%w: fps %g outside (0, 240]", ErrInvalid, c.FPS)
	case c.Title == "":
		return fmt.Errorf("%w: empty title", ErrInvalid)
	case c.Elevation <= -90 || c.Elevation >= 90:
		return fmt.Errorf("%w: elevation %g outside (-90, 90)", ErrInvalid, c.Elevation)
	}
	if err := c.ScenePalette().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ScenePalette converts the colour settings for the scene factory.
func (c Config) ScenePalette() scene.Palette {
	return scene.Palette{
		Sphere:     c.Palette.Sphere,
		MeshA:      c.Palette.MeshA,
		MeshB:      c.Palette.MeshB,
		Background: c.Background,
	}
}

// SurfaceSize is the snapshot size in pixels for a rows x cols grid.
func (c Config) SurfaceSize(rows, cols int) (w, h int) {
	return c.CellSize * cols, c.CellSize * rows
}

// Marshal encodes the settings as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
