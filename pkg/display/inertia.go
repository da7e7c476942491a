package display

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// restVelocity is the speed, in degrees per frame, below which an orbit stops.
const restVelocity = 0.01

// orbitAxis is one rotation rate that a spring pulls back to zero.
type orbitAxis struct {
	Velocity float64 // degrees per frame
	accel    float64 // spring's own velocity while animating Velocity
	spring   harmonica.Spring
}

func newOrbitAxis(fps int) orbitAxis {
	// critically damped: slows down without swinging back
	return orbitAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

// step returns this frame's rotation and decays the velocity.
func (a *orbitAxis) step() float64 {
	v := a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
	if math.Abs(a.Velocity) < restVelocity && math.Abs(a.accel) < restVelocity {
		a.Velocity, a.accel = 0, 0
	}
	return v
}

// OrbitInertia keeps a camera turning after a drag is released, slowing it
// down with a spring.
type OrbitInertia struct {
	Azimuth, Elevation orbitAxis
	fps                int
}

// NewOrbitInertia returns inertia stepped fps times per second.
func NewOrbitInertia(fps float64) *OrbitInertia {
	n := max(1, int(math.Round(fps)))
	return &OrbitInertia{
		Azimuth:   newOrbitAxis(n),
		Elevation: newOrbitAxis(n),
		fps:       n,
	}
}

// Throw sets the rotation rates, in degrees per frame.
func (o *OrbitInertia) Throw(azimuth, elevation float64) {
	o.Azimuth.Velocity, o.Azimuth.accel = azimuth, 0
	o.Elevation.Velocity, o.Elevation.accel = elevation, 0
}

// Step returns the rotation for this frame and decays both rates.
func (o *OrbitInertia) Step() (azimuth, elevation float64) {
	return o.Azimuth.step(), o.Elevation.step()
}

// Active reports whether the camera is still turning.
func (o *OrbitInertia) Active() bool {
	return o.Azimuth.Velocity != 0 || o.Elevation.Velocity != 0
}

// Stop halts the rotation at once.
func (o *OrbitInertia) Stop() {
	o.Azimuth = newOrbitAxis(o.fps)
	o.Elevation = newOrbitAxis(o.fps)
}
