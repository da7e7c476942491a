package render

import (
	"math"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// LightType says which frame a light's position and focal point live in.
type LightType int

const (
	// SceneLight is fixed in world space.
	SceneLight LightType = iota
	// CameraLight moves with the camera: the camera sits at (0,0,1) looking
	// at the origin, one unit per focal distance.
	CameraLight
	// HeadLight sits at the camera position and points at the focal point.
	HeadLight
)

func (t LightType) String() string {
	switch t {
	case SceneLight:
		return "scene"
	case CameraLight:
		return "camera"
	case HeadLight:
		return "headlight"
	}
	return "unknown"
}

// Light is a directional or positional (spot) light.
type Light struct {
	Type       LightType
	Position   math3d.Vec3
	FocalPoint math3d.Vec3

	DiffuseColor  math3d.Vec3
	SpecularColor math3d.Vec3
	Intensity     float64

	Positional  bool
	ConeAngle   float64    // degrees; 90 or more disables the cone
	Exponent    float64    // spot falloff
	Attenuation [3]float64 // constant, linear, quadratic

	On bool
}

// NewLight returns a white directional scene light at (0,0,1) aimed at the origin.
func NewLight() *Light {
	white := math3d.V3(1, 1, 1)
	return &Light{
		Type:          SceneLight,
		Position:      math3d.V3(0, 0, 1),
		DiffuseColor:  white,
		SpecularColor: white,
		Intensity:     1,
		ConeAngle:     30,
		Exponent:      1,
		Attenuation:   [3]float64{1, 0, 0},
		On:            true,
	}
}

// NewHeadLight returns the light a renderer creates when it has none.
func NewHeadLight() *Light {
	l := NewLight()
	l.Type = HeadLight
	return l
}

// SetColor sets both the diffuse and specular colour.
func (l *Light) SetColor(c math3d.Vec3) {
	l.DiffuseColor = c
	l.SpecularColor = c
}

// resolvedLight is a light expressed in world space for one frame.
type resolvedLight struct {
	positional bool
	position   math3d.Vec3 // positional lights
	toLight    math3d.Vec3 // directional lights, unit
	spotDir    math3d.Vec3 // unit, from position toward focal point
	coneCos    float64     // cos(cone); -1 when no cone
	exponent   float64
	atten      [3]float64
	diffuse    math3d.Vec3 // colour * intensity
	specular   math3d.Vec3
}

func (l *Light) resolve(cam *Camera) resolvedLight {
	pos, focal := l.Position, l.FocalPoint
	switch l.Type {
	case HeadLight:
		pos, focal = cam.Position(), cam.FocalPoint()
	case CameraLight:
		m := cam.CameraLightTransform()
		pos, focal = m.MulVec3(pos), m.MulVec3(focal)
	}

	rl := resolvedLight{
		positional: l.Positional,
		position:   pos,
		toLight:    pos.Sub(focal).Normalize(),
		spotDir:    focal.Sub(pos).Normalize(),
		coneCos:    -1,
		exponent:   l.Exponent,
		atten:      l.Attenuation,
		diffuse:    l.DiffuseColor.Scale(l.Intensity),
		specular:   l.SpecularColor.Scale(l.Intensity),
	}
	if l.Positional && l.ConeAngle < 90 {
		rl.coneCos = math.Cos(l.ConeAngle * math.Pi / 180)
	}
	return rl
}

// incidence returns the unit vector from p toward the light and the light's
// attenuation at p (0 outside a spot cone).
func (rl *resolvedLight) incidence(p math3d.Vec3) (math3d.Vec3, float64) {
	if !rl.positional {
		return rl.toLight, 1
	}
	toLight := rl.position.Sub(p)
	d := toLight.Len()
	if d == 0 {
		return math3d.Vec3{}, 0
	}
	toLight = toLight.Scale(1 / d)

	att := 1.0
	if denom := rl.atten[0] + rl.atten[1]*d + rl.atten[2]*d*d; denom > 0 {
		att = 1 / denom
	}
	if rl.coneCos > -1 {
		cosAngle := toLight.Negate().Dot(rl.spotDir)
		if cosAngle < rl.coneCos {
			return toLight, 0
		}
		att *= math.Pow(math.Max(cosAngle, 0), rl.exponent)
	}
	return toLight, att
}
