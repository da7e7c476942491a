package render

import (
	"image/color"
	"math"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// Color is an 8-bit RGB framebuffer colour.
type Color struct {
	R, G, B uint8
}

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// Common colors.
var (
	ColorBlack = RGB(0, 0, 0)
	ColorWhite = RGB(255, 255, 255)
	ColorRed   = RGB(255, 0, 0)
	ColorGreen = RGB(0, 255, 0)
	ColorBlue  = RGB(0, 0, 255)
)

// FromFloat converts a linear [0,1] colour to 8 bits, clamping each channel.
func FromFloat(c math3d.Vec3) Color {
	return RGB(channel(c.X), channel(c.Y), channel(c.Z))
}

func channel(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.Round(v * 255))
}

// Float returns the colour as [0,1] components.
func (c Color) Float() math3d.Vec3 {
	return math3d.V3(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}.RGBA()
}

// MultiplyColor scales a color by a factor (clamped to 0-255).
func MultiplyColor(c Color, f float64) Color {
	return RGB(
		uint8(math.Min(255, float64(c.R)*f)),
		uint8(math.Min(255, float64(c.G)*f)),
		uint8(math.Min(255, float64(c.B)*f)),
	)
}
