package display

import (
	"fortio.org/log"
	"github.com/taigrr/shadegrid/pkg/render"
)

// Interaction tuning.
const (
	orbitDegreesPerPixel = 0.8
	dollyFactor          = 1.1
	panFraction          = 0.05 // of the visible height per key press
)

// Interactor turns pointer and key events into camera and property changes
// on the renderer under the pointer. Every method reports whether the frame
// needs redrawing.
type Interactor struct {
	d       *Display
	inertia *OrbitInertia
	target  *render.Camera // camera being dragged or coasting

	dragging     bool
	lastX, lastY int
}

// NewInteractor returns an interactor for d, stepping inertia at fps.
func NewInteractor(d *Display, fps float64) *Interactor {
	return &Interactor{d: d, inertia: NewOrbitInertia(fps)}
}

func (in *Interactor) rendererAt(px, py int) *render.Renderer {
	i := in.d.RendererAt(px, py)
	if i < 0 {
		return nil
	}
	return in.d.renderers[i]
}

// Hover moves the focus frame to the cell under the pointer.
func (in *Interactor) Hover(px, py int) bool {
	return in.d.SetFocus(in.d.RendererAt(px, py))
}

// Press starts a drag on the renderer under the pointer.
func (in *Interactor) Press(px, py int) bool {
	r := in.rendererAt(px, py)
	if r == nil {
		return false
	}
	in.inertia.Stop()
	in.target = r.ActiveCamera()
	in.dragging = true
	in.lastX, in.lastY = px, py
	return false
}

// Drag orbits the pressed renderer's camera by the pointer motion.
func (in *Interactor) Drag(px, py int) bool {
	if !in.dragging {
		return in.Press(px, py)
	}
	dx, dy := px-in.lastX, py-in.lastY
	in.lastX, in.lastY = px, py
	if dx == 0 && dy == 0 {
		return false
	}
	az, el := -float64(dx)*orbitDegreesPerPixel, float64(dy)*orbitDegreesPerPixel
	orbit(in.target, az, el)
	in.inertia.Throw(az, el)
	return true
}

// Release ends a drag; the camera keeps turning and slows down.
func (in *Interactor) Release() bool {
	in.dragging = false
	return false
}

// Tick advances the inertia by one frame.
func (in *Interactor) Tick() bool {
	if in.dragging || in.target == nil || !in.inertia.Active() {
		return false
	}
	az, el := in.inertia.Step()
	orbit(in.target, az, el)
	return true
}

func orbit(cam *render.Camera, azimuth, elevation float64) {
	cam.Azimuth(azimuth)
	cam.Elevation(elevation)
	cam.OrthogonalizeViewUp()
}

// Wheel dollies the camera under the pointer; up moves closer.
func (in *Interactor) Wheel(up bool, px, py int) bool {
	r := in.rendererAt(px, py)
	if r == nil {
		return false
	}
	f := dollyFactor
	if !up {
		f = 1 / dollyFactor
	}
	r.ActiveCamera().Dolly(f)
	return true
}

// Key handles one key press with the pointer at (px, py). quit is set for
// the keys that end the session.
func (in *Interactor) Key(b byte, px, py int) (changed, quit bool) {
	switch b {
	case 'q', 'Q', 'e', 'E', 27, 3, 4: // Esc, Ctrl-C, Ctrl-D
		return false, true
	case '?':
		in.d.ShowLabels = !in.d.ShowLabels
		return true, false
	}

	r := in.rendererAt(px, py)
	if r == nil {
		return false, false
	}
	cam := r.ActiveCamera()
	step := cam.ViewHeight() * panFraction
	switch b {
	case 'r', 'R':
		if in.target == cam {
			in.inertia.Stop()
		}
		r.ResetCamera()
		log.Debugf("reset camera of %s", r.Name)
	case 'w', 'W':
		setRepresentation(r, render.Wireframe)
	case 's', 'S':
		setRepresentation(r, render.Surface)
	case 'i', 'I':
		cam.Pan(0, step)
	case 'k', 'K':
		cam.Pan(0, -step)
	case 'j', 'J':
		cam.Pan(-step, 0)
	case 'l', 'L':
		cam.Pan(step, 0)
	default:
		return false, false
	}
	return true, false
}

func setRepresentation(r *render.Renderer, rep render.Representation) {
	for _, a := range r.Actors() {
		a.Property().SetRepresentation(rep)
	}
}
