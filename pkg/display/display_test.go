package display

import (
	"context"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/shadegrid/pkg/layout"
	"github.com/taigrr/shadegrid/pkg/render"
	"github.com/taigrr/shadegrid/pkg/scene"
)

var slateGray = render.RGB(112, 128, 144)

// newSphereDisplay returns an assembled 2x2 display of spheres, one per
// shading mode, on a w x h surface. Cameras are framed but not shared.
func newSphereDisplay(t *testing.T, w, h int) *Display {
	t.Helper()
	f, err := scene.NewFactory(scene.DefaultPalette())
	require.NoError(t, err)
	vps, err := layout.Grid(2, 2)
	require.NoError(t, err)

	d := New(w, h, "FlatGouraudPhong")
	rs := make([]*render.Renderer, 0, 4)
	for i, mode := range scene.ShadingModes {
		r, err := f.Build(scene.ProceduralSphere, mode, "")
		require.NoError(t, err)
		r.SetViewport(vps[i])
		r.SetAspect(vps[i].AspectRatio(w, h))
		rs = append(rs, r)
		require.NoError(t, d.AddRenderer(r))
	}
	scene.PrepareCameras(rs, slateGray, scene.DefaultAzimuth, scene.DefaultElevation)
	require.NoError(t, d.Assemble())
	return d
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", Uninitialized.String())
	assert.Equal(t, "interactive", Interactive.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestDisplayLifecycle(t *testing.T) {
	d := New(32, 32, "t")
	assert.Equal(t, Uninitialized, d.State())

	assert.ErrorIs(t, d.Render(), ErrBadTransition)
	assert.ErrorIs(t, d.Assemble(), ErrBadTransition, "assemble with no renderers")
	assert.ErrorIs(t, d.Snapshot(filepath.Join(t.TempDir(), "x.png")), ErrBadTransition)
	assert.Error(t, d.AddRenderer(nil))

	require.NoError(t, d.AddRenderer(render.NewRenderer()))
	require.NoError(t, d.Assemble())
	assert.Equal(t, Assembled, d.State())
	assert.ErrorIs(t, d.Assemble(), ErrBadTransition)
	assert.ErrorIs(t, d.AddRenderer(render.NewRenderer()), ErrBadTransition)

	require.NoError(t, d.Render())
	assert.Equal(t, Rendering, d.State())
	require.NoError(t, d.Render(), "re-rendering stays in Rendering")
	assert.Equal(t, Rendering, d.State())

	require.NoError(t, d.Close())
	assert.Equal(t, Terminated, d.State())
	assert.ErrorIs(t, d.Close(), ErrBadTransition)
	assert.ErrorIs(t, d.Render(), ErrBadTransition)
	assert.ErrorIs(t, d.Start(context.Background()), ErrBadTransition)
}

func TestDisplayRenderFillsEveryCell(t *testing.T) {
	d := newSphereDisplay(t, 64, 64)
	require.NoError(t, d.Render())

	fb := d.Framebuffer()
	for i, r := range d.Renderers() {
		rect := r.Viewport().PixelRect(fb.Width, fb.Height)
		assert.Equal(t, slateGray, fb.GetPixel(rect.Min.X, rect.Min.Y), "cell %d corner", i)
		assert.True(t, drewInside(fb, rect, slateGray), "cell %d shows the sphere", i)
	}
	assert.Positive(t, d.Stats().TrianglesDrawn)
	assert.Positive(t, d.Stats().LinesDrawn)
}

func drewInside(fb *render.Framebuffer, rect image.Rectangle, bg render.Color) bool {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if fb.GetPixel(x, y) != bg {
				return true
			}
		}
	}
	return false
}

func TestDisplaySnapshot(t *testing.T) {
	d := newSphereDisplay(t, 48, 32)
	require.NoError(t, d.Render())

	path := filepath.Join(t.TempDir(), "grid.png")
	require.NoError(t, d.Snapshot(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 48, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{112, 128, 144}, [3]uint32{r >> 8, g >> 8, b >> 8})
	assert.Equal(t, d.Image().Bounds(), img.Bounds())
}

func TestDisplayRendererAt(t *testing.T) {
	d := newSphereDisplay(t, 40, 20)
	assert.Equal(t, 0, d.RendererAt(0, 0))
	assert.Equal(t, 1, d.RendererAt(39, 0))
	assert.Equal(t, 2, d.RendererAt(0, 19))
	assert.Equal(t, 3, d.RendererAt(20, 10))
	assert.Equal(t, -1, d.RendererAt(40, 5))

	d.Resize(80, 40)
	assert.Equal(t, 3, d.RendererAt(79, 39))
	assert.Equal(t, 80, d.Framebuffer().Width)
}

func TestDisplayFocusFrame(t *testing.T) {
	d := newSphereDisplay(t, 40, 40)
	assert.True(t, d.SetFocus(3))
	assert.False(t, d.SetFocus(3))
	require.NoError(t, d.Render())

	frame := render.MultiplyColor(slateGray, focusBrightness)
	assert.Equal(t, frame, d.Framebuffer().GetPixel(20, 20))
	assert.Equal(t, frame, d.Framebuffer().GetPixel(39, 39))
	assert.Equal(t, slateGray, d.Framebuffer().GetPixel(0, 0))

	assert.True(t, d.SetFocus(99), "out of range clears the focus")
	require.NoError(t, d.Render())
	assert.Equal(t, slateGray, d.Framebuffer().GetPixel(39, 39))
}

func TestInteractorDragOrbitsSharedCamera(t *testing.T) {
	d := newSphereDisplay(t, 40, 40)
	rs := d.Renderers()
	require.Equal(t, 2, scene.LinkCameras(rs, 2))
	in := NewInteractor(d, 30)

	start := rs[0].ActiveCamera().Position()
	dist := rs[0].ActiveCamera().Distance()
	other := rs[1].ActiveCamera().Position()

	assert.False(t, in.Press(5, 5))
	assert.True(t, in.Drag(15, 5))
	moved := rs[0].ActiveCamera().Position()
	assert.NotEqual(t, start, moved)
	assert.Equal(t, moved, rs[2].ActiveCamera().Position(), "column shares the camera")
	assert.Equal(t, other, rs[1].ActiveCamera().Position(), "other column untouched")
	assert.InDelta(t, dist, rs[0].ActiveCamera().Distance(), 1e-9, "orbit keeps the distance")

	assert.False(t, in.Tick(), "no coasting while the button is held")
	in.Release()
	assert.True(t, in.Tick())
	assert.NotEqual(t, moved, rs[0].ActiveCamera().Position())

	for range 300 {
		in.Tick()
	}
	assert.False(t, in.Tick(), "inertia settles")
}

func TestInteractorWheelAndPan(t *testing.T) {
	d := newSphereDisplay(t, 40, 40)
	in := NewInteractor(d, 30)
	cam := d.Renderers()[3].ActiveCamera()

	dist := cam.Distance()
	assert.True(t, in.Wheel(true, 30, 30))
	assert.InDelta(t, dist/dollyFactor, cam.Distance(), 1e-9)
	assert.True(t, in.Wheel(false, 30, 30))
	assert.InDelta(t, dist, cam.Distance(), 1e-9)
	assert.False(t, in.Wheel(true, 400, 400))

	focal := cam.FocalPoint()
	changed, quit := in.Key('l', 30, 30)
	assert.True(t, changed)
	assert.False(t, quit)
	assert.InDelta(t, cam.ViewHeight()*panFraction, cam.FocalPoint().Distance(focal), 1e-9)
	dop := cam.DirectionOfProjection()
	in.Key('i', 30, 30)
	assert.True(t, dop.ApproxEqual(cam.DirectionOfProjection(), 1e-12), "pan keeps the direction")
}

func TestInteractorResetCamera(t *testing.T) {
	d := newSphereDisplay(t, 40, 40)
	in := NewInteractor(d, 30)
	cam := d.Renderers()[0].ActiveCamera()
	framed := cam.Position()

	in.Wheel(true, 5, 5)
	in.Key('j', 5, 5)
	require.NotEqual(t, framed, cam.Position())

	changed, _ := in.Key('r', 5, 5)
	assert.True(t, changed)
	assert.True(t, cam.Position().ApproxEqual(framed, 1e-9), "%v != %v", cam.Position(), framed)
}

func TestInteractorRepresentationKeys(t *testing.T) {
	d := newSphereDisplay(t, 40, 40)
	in := NewInteractor(d, 30)
	prop := d.Renderers()[1].Actors()[0].Property()
	require.Equal(t, render.Surface, prop.Representation())

	in.Key('w', 30, 5)
	assert.Equal(t, render.Wireframe, prop.Representation())
	assert.Equal(t, render.Flat, prop.Interpolation(), "interpolation kept")
	in.Key('s', 30, 5)
	assert.Equal(t, render.Surface, prop.Representation())

	wire := d.Renderers()[0].Actors()[0].Property()
	assert.Equal(t, render.Wireframe, wire.Representation(), "other cells untouched")
}

func TestInteractorKeys(t *testing.T) {
	d := newSphereDisplay(t, 40, 40)
	in := NewInteractor(d, 30)

	for _, b := range []byte{'q', 'Q', 'e', 'E', 27, 3, 4} {
		_, quit := in.Key(b, 0, 0)
		assert.True(t, quit, "key %q", b)
	}

	changed, quit := in.Key('?', 0, 0)
	assert.True(t, changed)
	assert.False(t, quit)
	assert.True(t, d.ShowLabels)

	changed, _ = in.Key('z', 0, 0)
	assert.False(t, changed)
	changed, _ = in.Key('w', 500, 500)
	assert.False(t, changed, "no renderer under the pointer")
}

func TestOrbitInertia(t *testing.T) {
	o := NewOrbitInertia(60)
	assert.False(t, o.Active())

	o.Throw(10, -4)
	az, el := o.Step()
	assert.InDelta(t, 10, az, 1e-12)
	assert.InDelta(t, -4, el, 1e-12)
	assert.Less(t, math.Abs(o.Azimuth.Velocity), 10.0)

	frames := 0
	for o.Active() && frames < 1000 {
		o.Step()
		frames++
	}
	assert.False(t, o.Active())
	assert.Less(t, frames, 1000)

	o.Throw(5, 5)
	o.Stop()
	assert.False(t, o.Active())
}

func TestPointerPixel(t *testing.T) {
	x, y := pointerPixel(1, 1)
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})
	x, y = pointerPixel(10, 4)
	assert.Equal(t, [2]int{9, 6}, [2]int{x, y})
	x, y = pointerPixel(0, 0)
	assert.Equal(t, [2]int{0, 0}, [2]int{x, y})
}
