package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taigrr/shadegrid/pkg/math3d"
	"github.com/taigrr/shadegrid/pkg/render"
	"golang.org/x/image/colornames"
)

// ErrUnknownColor is returned for colour names outside the SVG 1.1 set.
var ErrUnknownColor = errors.New("unknown colour name")

// Palette names the colours used by the factory and the camera linker.
// Names are SVG 1.1 colour keywords, matched without regard to case,
// spaces or underscores.
type Palette struct {
	Sphere     string
	MeshA      string
	MeshB      string
	Background string
}

// DefaultPalette returns Gold, DarkViolet and DarkGreen shapes on SlateGray.
func DefaultPalette() Palette {
	return Palette{
		Sphere:     "Gold",
		MeshA:      "DarkViolet",
		MeshB:      "DarkGreen",
		Background: "SlateGray",
	}
}

// Validate checks that every name resolves.
func (p Palette) Validate() error {
	for _, name := range []string{p.Sphere, p.MeshA, p.MeshB, p.Background} {
		if _, err := LookupColor(name); err != nil {
			return err
		}
	}
	return nil
}

// BackgroundColor resolves the background name to a framebuffer colour.
func (p Palette) BackgroundColor() (render.Color, error) {
	c, err := LookupColor(p.Background)
	if err != nil {
		return render.Color{}, err
	}
	return render.FromFloat(c), nil
}

// LookupColor resolves a colour name to linear RGB in [0, 1].
func LookupColor(name string) (math3d.Vec3, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name))
	c, ok := colornames.Map[key]
	if !ok {
		return math3d.Vec3{}, fmt.Errorf("%w: %q", ErrUnknownColor, name)
	}
	return math3d.V3(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255), nil
}
