package render

import "github.com/taigrr/shadegrid/pkg/math3d"

// Representation selects how an actor's triangles are drawn.
type Representation int

const (
	Surface Representation = iota
	Wireframe
)

func (r Representation) String() string {
	if r == Wireframe {
		return "wireframe"
	}
	return "surface"
}

// Interpolation selects where lighting is evaluated.
type Interpolation int

const (
	Flat    Interpolation = iota // once per triangle
	Gouraud                      // per vertex, colours interpolated
	Phong                        // per pixel, normals interpolated
)

func (i Interpolation) String() string {
	switch i {
	case Flat:
		return "flat"
	case Gouraud:
		return "gouraud"
	case Phong:
		return "phong"
	}
	return "unknown"
}

// Property holds an actor's surface appearance. Defaults: white, diffuse 1,
// no ambient or specular, surface representation, Gouraud interpolation.
type Property struct {
	AmbientColor  math3d.Vec3
	DiffuseColor  math3d.Vec3
	SpecularColor math3d.Vec3

	Ambient       float64
	Diffuse       float64
	Specular      float64
	SpecularPower float64

	representation Representation
	interpolation  Interpolation
}

// NewProperty returns a property with default values.
func NewProperty() *Property {
	white := math3d.V3(1, 1, 1)
	return &Property{
		AmbientColor:   white,
		DiffuseColor:   white,
		SpecularColor:  white,
		Diffuse:        1,
		SpecularPower:  1,
		representation: Surface,
		interpolation:  Gouraud,
	}
}

// SetColor sets the ambient, diffuse and specular colours at once.
func (p *Property) SetColor(c math3d.Vec3) {
	p.AmbientColor = c
	p.DiffuseColor = c
	p.SpecularColor = c
}

// SetDiffuseColor changes only the diffuse colour.
func (p *Property) SetDiffuseColor(c math3d.Vec3) {
	p.DiffuseColor = c
}

// SetRepresentation replaces the representation; the last call wins.
func (p *Property) SetRepresentation(r Representation) {
	p.representation = r
}

// SetInterpolation replaces the interpolation model; the last call wins.
func (p *Property) SetInterpolation(i Interpolation) {
	p.interpolation = i
}

func (p *Property) Representation() Representation { return p.representation }
func (p *Property) Interpolation() Interpolation   { return p.interpolation }
