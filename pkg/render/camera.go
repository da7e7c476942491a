package render

import (
	"math"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// Camera is a perspective camera orbiting a focal point. Several renderers
// may hold the same *Camera; any change is seen by all of them.
type Camera struct {
	position   math3d.Vec3
	focalPoint math3d.Vec3
	viewUp     math3d.Vec3
	viewAngle  float64 // vertical, degrees
	near, far  float64
}

// NewCamera returns a camera at (0,0,1) looking at the origin with +Y up and
// a 30 degree view angle.
func NewCamera() *Camera {
	return &Camera{
		position:   math3d.V3(0, 0, 1),
		focalPoint: math3d.Zero3(),
		viewUp:     math3d.V3(0, 1, 0),
		viewAngle:  30,
		near:       0.01,
		far:        1000.01,
	}
}

func (c *Camera) Position() math3d.Vec3   { return c.position }
func (c *Camera) FocalPoint() math3d.Vec3 { return c.focalPoint }
func (c *Camera) ViewUp() math3d.Vec3     { return c.viewUp }
func (c *Camera) ViewAngle() float64      { return c.viewAngle }

// ClippingRange returns the near and far plane distances.
func (c *Camera) ClippingRange() (near, far float64) { return c.near, c.far }

func (c *Camera) SetPosition(p math3d.Vec3)   { c.position = p }
func (c *Camera) SetFocalPoint(p math3d.Vec3) { c.focalPoint = p }

// SetViewUp sets the up vector; zero vectors are ignored.
func (c *Camera) SetViewUp(up math3d.Vec3) {
	if up.LenSq() == 0 {
		return
	}
	c.viewUp = up.Normalize()
}

// SetViewAngle sets the vertical view angle in degrees, clamped to [1, 179].
func (c *Camera) SetViewAngle(deg float64) {
	c.viewAngle = math.Max(1, math.Min(179, deg))
}

// SetClippingRange sets the near and far planes; near is kept positive and
// in front of far.
func (c *Camera) SetClippingRange(near, far float64) {
	if far <= 0 {
		far = 1
	}
	if near <= 0 || near >= far {
		near = far * 0.001
	}
	c.near, c.far = near, far
}

// Distance is the distance from the position to the focal point.
func (c *Camera) Distance() float64 {
	return c.position.Distance(c.focalPoint)
}

// DirectionOfProjection is the unit vector from position to focal point.
func (c *Camera) DirectionOfProjection() math3d.Vec3 {
	return c.focalPoint.Sub(c.position).Normalize()
}

// basis returns the orthonormal right, up and forward vectors of the view.
func (c *Camera) basis() (right, up, forward math3d.Vec3) {
	forward = c.DirectionOfProjection()
	right = forward.Cross(c.viewUp).Normalize()
	up = right.Cross(forward)
	return right, up, forward
}

// Azimuth rotates the camera about the view up vector through the focal point.
func (c *Camera) Azimuth(deg float64) {
	c.orbit(c.viewUp, deg)
}

// Elevation rotates the camera about the horizontal axis through the focal
// point. The view up vector is left alone; see OrthogonalizeViewUp.
func (c *Camera) Elevation(deg float64) {
	right, _, _ := c.basis()
	c.orbit(right.Negate(), deg)
}

func (c *Camera) orbit(axis math3d.Vec3, deg float64) {
	rot := math3d.RotateAxis(axis, deg*math.Pi/180)
	offset := rot.MulVec3Dir(c.position.Sub(c.focalPoint))
	c.position = c.focalPoint.Add(offset)
}

// OrthogonalizeViewUp makes the view up vector perpendicular to the
// direction of projection.
func (c *Camera) OrthogonalizeViewUp() {
	_, up, _ := c.basis()
	if up.LenSq() > 0 {
		c.viewUp = up
	}
}

// Dolly moves the camera toward the focal point; factors above 1 move closer.
func (c *Camera) Dolly(factor float64) {
	if factor <= 0 {
		return
	}
	d := c.Distance() / factor
	c.position = c.focalPoint.Sub(c.DirectionOfProjection().Scale(d))
}

// Zoom narrows the view angle by factor.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.SetViewAngle(c.viewAngle / factor)
}

// Pan moves position and focal point together along the view's right and up
// axes, in world units.
func (c *Camera) Pan(dx, dy float64) {
	right, up, _ := c.basis()
	delta := right.Scale(dx).Add(up.Scale(dy))
	c.position = c.position.Add(delta)
	c.focalPoint = c.focalPoint.Add(delta)
}

// ViewHeight is the world-space height visible at the focal plane.
func (c *Camera) ViewHeight() float64 {
	return 2 * c.Distance() * math.Tan(c.viewAngle*math.Pi/360)
}

// ResetCamera aims at the centre of the box and backs off until its bounding
// sphere fits the view angle, keeping the current viewing direction. For
// aspect ratios below 1 the horizontal angle is the limiting one.
func (c *Camera) ResetCamera(minB, maxB math3d.Vec3, aspect float64) {
	center := minB.Add(maxB).Scale(0.5)
	radius := maxB.Sub(minB).Len() / 2
	if radius == 0 {
		radius = 0.5
	}

	angle := c.viewAngle * math.Pi / 180
	if aspect > 0 && aspect < 1 {
		angle = 2 * math.Atan(math.Tan(angle/2)*aspect)
	}
	distance := radius / math.Sin(angle/2)

	vn := c.position.Sub(c.focalPoint).Normalize()
	if vn.LenSq() == 0 {
		vn = math3d.V3(0, 0, 1)
	}
	if math.Abs(vn.Dot(c.viewUp)) > 0.999 {
		c.viewUp = math3d.V3(-vn.Z, vn.X, vn.Y)
	}

	c.focalPoint = center
	c.position = center.Add(vn.Scale(distance))
	c.ResetClippingRange(minB, maxB)
}

// ResetClippingRange fits the near and far planes around the box with some
// slack on either side.
func (c *Camera) ResetClippingRange(minB, maxB math3d.Vec3) {
	dop := c.DirectionOfProjection()
	near, far := math.Inf(1), math.Inf(-1)
	for i := range 8 {
		corner := math3d.V3(
			pick(i&1 != 0, maxB.X, minB.X),
			pick(i&2 != 0, maxB.Y, minB.Y),
			pick(i&4 != 0, maxB.Z, minB.Z),
		)
		d := corner.Sub(c.position).Dot(dop)
		near = math.Min(near, d)
		far = math.Max(far, d)
	}
	span := far - near
	near = 0.99*near - span*0.5
	far = 1.01*far + span*0.5
	if far <= 0 {
		far = 1
	}
	if near < far*0.001 {
		near = far * 0.001
	}
	c.near, c.far = near, far
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// ViewMatrix transforms world space into camera space.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	return math3d.LookAt(c.position, c.focalPoint, c.viewUp)
}

// ProjectionMatrix is the perspective projection for a viewport of the given aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float64) math3d.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return math3d.Perspective(c.viewAngle*math.Pi/180, aspect, c.near, c.far)
}

// ViewProjectionMatrix is ProjectionMatrix(aspect) * ViewMatrix().
func (c *Camera) ViewProjectionMatrix(aspect float64) math3d.Mat4 {
	return c.ProjectionMatrix(aspect).Mul(c.ViewMatrix())
}

// CameraLightTransform maps the camera light frame (camera at (0,0,1) looking
// at the origin, +Y up, one unit per focal distance) into world space.
func (c *Camera) CameraLightTransform() math3d.Mat4 {
	d := c.Distance()
	return c.ViewMatrix().Inverse().
		Mul(math3d.Scale(math3d.V3(d, d, d))).
		Mul(math3d.Translate(math3d.V3(0, 0, -1)))
}

// Copy returns an independent camera with the same state.
func (c *Camera) Copy() *Camera {
	cp := *c
	return &cp
}
