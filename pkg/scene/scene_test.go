package scene

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/shadegrid/pkg/layout"
	"github.com/taigrr/shadegrid/pkg/math3d"
	"github.com/taigrr/shadegrid/pkg/models"
	"github.com/taigrr/shadegrid/pkg/render"
)

const cubeOBJ = `# unit cube
v -1 -1 -1
v  1 -1 -1
v  1  1 -1
v -1  1 -1
v -1 -1  1
v  1 -1  1
v  1  1  1
v -1  1  1
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 2 3 7 6
f 3 4 8 7
f 4 1 5 8
`

const wedgeOBJ = `v 0 0 0
v 2 0 0
v 0 3 0
v 0 0 4
f 1 2 3
f 1 2 4
f 1 3 4
f 2 3 4
`

func writeMesh(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFactory(t *testing.T) *Factory {
	t.Helper()
	f, err := NewFactory(DefaultPalette())
	require.NoError(t, err)
	return f
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "Wireframe", Wireframe.String())
	assert.Equal(t, "Phong", Phong.String())
	assert.Equal(t, "Unknown", ShadingMode(7).String())
	assert.Equal(t, "IsoSurface", ImplicitIsoSurface.String())
	assert.Equal(t, "Unknown", ShapeKind(-1).String())
	assert.Equal(t, "GouraudSecondModel", SlotName(ExternalMeshB, Gouraud))
	assert.True(t, ExternalMeshA.NeedsMesh())
	assert.False(t, ImplicitIsoSurface.NeedsMesh())
}

func TestLookupColor(t *testing.T) {
	gold, err := LookupColor("Gold")
	require.NoError(t, err)
	assert.InDelta(t, 1, gold.X, 1e-9)
	assert.InDelta(t, 215.0/255, gold.Y, 1e-9)
	assert.InDelta(t, 0, gold.Z, 1e-9)

	for _, name := range []string{"SlateGray", "slate gray", "slate_gray", "SLATEGRAY"} {
		c, err := LookupColor(name)
		require.NoError(t, err, name)
		assert.Equal(t, math3d.V3(112.0/255, 128.0/255, 144.0/255), c, name)
	}

	_, err = LookupColor("Blurple")
	assert.ErrorIs(t, err, ErrUnknownColor)
}

func TestPalette(t *testing.T) {
	p := DefaultPalette()
	require.NoError(t, p.Validate())

	bg, err := p.BackgroundColor()
	require.NoError(t, err)
	assert.Equal(t, render.RGB(112, 128, 144), bg)

	p.MeshB = "NotAColour"
	assert.ErrorIs(t, p.Validate(), ErrUnknownColor)
	_, err = NewFactory(p)
	assert.ErrorIs(t, err, ErrUnknownColor)
}

func TestBuildShadingDirective(t *testing.T) {
	f := newFactory(t)
	tests := []struct {
		mode   ShadingMode
		repr   render.Representation
		interp render.Interpolation
	}{
		{Wireframe, render.Wireframe, render.Gouraud},
		{Flat, render.Surface, render.Flat},
		{Gouraud, render.Surface, render.Gouraud},
		{Phong, render.Surface, render.Phong},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			ren, err := f.Build(ProceduralSphere, tt.mode, "")
			require.NoError(t, err)
			require.Len(t, ren.Actors(), 1)
			prop := ren.Actors()[0].Property()
			assert.Equal(t, tt.repr, prop.Representation())
			assert.Equal(t, tt.interp, prop.Interpolation())
			assert.Equal(t, SlotName(ProceduralSphere, tt.mode), ren.Name)
		})
	}
}

func TestBuildSphere(t *testing.T) {
	f := newFactory(t)
	ren, err := f.Build(ProceduralSphere, Gouraud, "")
	require.NoError(t, err)

	actor := ren.Actors()[0]
	mesh := actor.Mapper.Input()
	assert.Equal(t, 50, mesh.VertexCount())
	assert.Equal(t, 96, mesh.TriangleCount())

	gold, _ := LookupColor("Gold")
	prop := actor.Property()
	assert.Equal(t, gold, prop.AmbientColor)
	assert.Equal(t, gold, prop.DiffuseColor)
	assert.Equal(t, gold, prop.SpecularColor)

	require.Len(t, ren.Lights(), 1)
	l := ren.Lights()[0]
	assert.Equal(t, render.SceneLight, l.Type)
	assert.True(t, l.Positional)
	assert.Equal(t, math3d.V3(4, 5, 1), l.Position)
	assert.Equal(t, math3d.Zero3(), l.FocalPoint)
	assert.Equal(t, math3d.V3(1, 0, 0), l.SpecularColor)
	assert.Equal(t, math3d.V3(1, 1, 1), l.DiffuseColor)
	assert.InDelta(t, 30, l.ConeAngle, 1e-12)
}

func TestBuildMeshA(t *testing.T) {
	f := newFactory(t)
	ren, err := f.Build(ExternalMeshA, Phong, writeMesh(t, "cube.obj", cubeOBJ))
	require.NoError(t, err)

	violet, _ := LookupColor("DarkViolet")
	prop := ren.Actors()[0].Property()
	assert.Equal(t, violet, prop.AmbientColor)
	assert.Equal(t, math3d.V3(1, 0, 0), prop.DiffuseColor)
	assert.Equal(t, violet, prop.SpecularColor)
	assert.Equal(t, 1.0, prop.Diffuse)
	assert.Equal(t, 1.0, prop.Specular)
	assert.Equal(t, 30.0, prop.SpecularPower)

	require.Len(t, ren.Lights(), 1)
	l := ren.Lights()[0]
	assert.Equal(t, render.CameraLight, l.Type)
	assert.Equal(t, math3d.V3(10, 10, 10), l.Position)
	assert.Equal(t, math3d.V3(1, 1, 1), l.DiffuseColor)
	assert.Equal(t, math3d.V3(1, 1, 1), l.SpecularColor)
}

func TestBuildIsoSurface(t *testing.T) {
	f := newFactory(t)
	ren, err := f.Build(ImplicitIsoSurface, Flat, "")
	require.NoError(t, err)

	actor := ren.Actors()[0]
	lo, hi := actor.Mapper.ScalarRange()
	assert.Equal(t, [2]float64{0, 7}, [2]float64{lo, hi})
	assert.True(t, actor.Mapper.ScalarVisibility)

	mesh, ok := actor.Mapper.Input().(*models.Mesh)
	require.True(t, ok)
	assert.True(t, mesh.HasScalars)
	assert.Positive(t, mesh.TriangleCount())

	prop := actor.Property()
	assert.Equal(t, math3d.V3(1, 0, 0), prop.DiffuseColor)
	assert.Equal(t, 30.0, prop.SpecularPower)
	require.Len(t, ren.Lights(), 1)
	assert.Equal(t, render.CameraLight, ren.Lights()[0].Type)
}

func TestBuildMeshBUsesHeadlight(t *testing.T) {
	f := newFactory(t)
	ren, err := f.Build(ExternalMeshB, Gouraud, writeMesh(t, "cube.obj", cubeOBJ))
	require.NoError(t, err)
	assert.Empty(t, ren.Lights())

	green, _ := LookupColor("DarkGreen")
	assert.Equal(t, green, ren.Actors()[0].Property().DiffuseColor)

	fb := render.NewFramebuffer(16, 16)
	ren.ResetCamera()
	ren.Render(fb, render.NewRasterizer(fb))
	require.Len(t, ren.Lights(), 1)
	assert.Equal(t, render.HeadLight, ren.Lights()[0].Type)
}

func TestBuildErrors(t *testing.T) {
	f := newFactory(t)

	_, err := f.Build(ExternalMeshA, Flat, "")
	assert.ErrorIs(t, err, ErrMissingArgument)

	_, err = f.Build(ExternalMeshB, Flat, filepath.Join(t.TempDir(), "missing.obj"))
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = f.Build(ExternalMeshA, Flat, writeMesh(t, "points.obj", "v 0 0 0\nv 1 0 0\n"))
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.ErrorIs(t, err, models.ErrEmptyMesh)

	_, err = f.Build(ExternalMeshA, Flat, writeMesh(t, "model.ply", "ply\n"))
	assert.ErrorIs(t, err, ErrResourceNotFound)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)

	_, err = f.Build(ShapeKind(9), Flat, "")
	assert.ErrorIs(t, err, ErrUnknownShape)
}

func TestBuildIdempotent(t *testing.T) {
	f := newFactory(t)
	path := writeMesh(t, "cube.obj", cubeOBJ)

	for _, shape := range ShapeKinds {
		a, err := f.Build(shape, Phong, path)
		require.NoError(t, err)
		b, err := f.Build(shape, Phong, path)
		require.NoError(t, err)

		assert.NotSame(t, a, b, shape.String())
		assert.NotSame(t, a.Actors()[0], b.Actors()[0])
		assert.NotSame(t, a.Actors()[0].Property(), b.Actors()[0].Property())
		assert.Equal(t, *a.Actors()[0].Property(), *b.Actors()[0].Property())
		assert.NotSame(t, a.Actors()[0].Mapper.Input(), b.Actors()[0].Mapper.Input())
		assert.Equal(t, len(a.Lights()), len(b.Lights()))
	}
}

func TestBuildLoadsEachPathOnce(t *testing.T) {
	f := newFactory(t)
	loads := 0
	f.LoadMesh = func(path string) (*models.Mesh, error) {
		loads++
		return models.Load(path)
	}
	path := writeMesh(t, "cube.obj", cubeOBJ)
	for _, mode := range ShadingModes {
		_, err := f.Build(ExternalMeshA, mode, path)
		require.NoError(t, err)
		_, err = f.Build(ExternalMeshB, mode, path)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, loads)
}

func TestGrid(t *testing.T) {
	_, err := NewGrid(0, 4)
	assert.ErrorIs(t, err, layout.ErrInvalidGrid)

	g, err := NewGrid(2, 3)
	require.NoError(t, err)
	r := render.NewRenderer()
	require.NoError(t, g.Set(1, 2, r))
	assert.Same(t, r, g.At(1, 2))
	assert.Same(t, r, g.Renderers()[5])
	assert.Nil(t, g.At(2, 0))
	assert.ErrorIs(t, g.Set(0, 3, r), layout.ErrInvalidGrid)
	assert.ErrorIs(t, g.Layout(100, 100), layout.ErrInvalidGrid)
}

func TestAssemble(t *testing.T) {
	f := newFactory(t)
	g, err := f.Assemble(writeMesh(t, "a.obj", cubeOBJ), writeMesh(t, "b.obj", wedgeOBJ))
	require.NoError(t, err)
	require.NoError(t, g.Layout(1024, 1024))

	rs := g.Renderers()
	require.Len(t, rs, 16)
	seen := make(map[layout.Viewport]bool)
	area := 0.0
	for i, r := range rs {
		row, col := i/4, i%4
		assert.Equal(t, SlotName(ShapeKinds[col], ShadingModes[row]), r.Name)
		vp := r.Viewport()
		assert.False(t, seen[vp], "duplicate viewport %v", vp)
		seen[vp] = true
		area += vp.Width() * vp.Height()
		assert.InDelta(t, 1, r.Aspect(), 1e-12)
	}
	assert.InDelta(t, 1, area, 1e-12)

	want, err := layout.ComputeViewport(0, 0, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, want, g.At(0, 0).Viewport())

	_, err = f.Assemble(writeMesh(t, "a.obj", cubeOBJ), "")
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestPrepareCameras(t *testing.T) {
	f := newFactory(t)
	ren, err := f.Build(ExternalMeshA, Flat, writeMesh(t, "wedge.obj", wedgeOBJ))
	require.NoError(t, err)

	bg := render.RGB(112, 128, 144)
	PrepareCameras([]*render.Renderer{ren, nil}, bg, DefaultAzimuth, DefaultElevation)
	assert.Equal(t, bg, ren.Background())

	cam := ren.ActiveCamera()
	assert.True(t, cam.FocalPoint().ApproxEqual(math3d.V3(1, 1.5, 2), 1e-9), cam.FocalPoint())

	// azimuth then elevation from the default view along +Z
	ref := render.NewCamera()
	ref.Azimuth(DefaultAzimuth)
	ref.Elevation(DefaultElevation)
	assert.True(t, cam.DirectionOfProjection().ApproxEqual(ref.DirectionOfProjection(), 1e-9))
}

func TestLinkCameras(t *testing.T) {
	rs := make([]*render.Renderer, 16)
	for i := range rs {
		rs[i] = render.NewRenderer()
	}
	own := make([]*render.Camera, len(rs))
	for i, r := range rs {
		own[i] = r.ActiveCamera()
	}

	assert.Equal(t, 12, LinkCameras(rs, 4))
	assert.Same(t, rs[1].ActiveCamera(), rs[5].ActiveCamera())
	for i, r := range rs {
		assert.Same(t, own[i%4], r.ActiveCamera(), "renderer %d", i)
	}
	for i := range 4 {
		for j := i + 1; j < 4; j++ {
			assert.NotSame(t, rs[i].ActiveCamera(), rs[j].ActiveCamera())
		}
	}

	rs[1].ActiveCamera().Azimuth(45)
	assert.Equal(t, rs[1].ActiveCamera().Position(), rs[13].ActiveCamera().Position())
}

func TestLinkCamerasGuards(t *testing.T) {
	fresh := func(n int) []*render.Renderer {
		rs := make([]*render.Renderer, n)
		for i := range rs {
			rs[i] = render.NewRenderer()
		}
		return rs
	}

	assert.Zero(t, LinkCameras(fresh(4), 0))
	assert.Zero(t, LinkCameras(fresh(4), -1))
	assert.Zero(t, LinkCameras(fresh(3), 4))
	assert.Zero(t, LinkCameras(nil, 4))

	rs := fresh(6)
	assert.Equal(t, 2, LinkCameras(rs, 4))
	assert.Same(t, rs[0].ActiveCamera(), rs[4].ActiveCamera())
	assert.Same(t, rs[1].ActiveCamera(), rs[5].ActiveCamera())
	assert.NotSame(t, rs[2].ActiveCamera(), rs[3].ActiveCamera())

	withGap := fresh(8)
	withGap[1] = nil
	assert.Equal(t, 3, LinkCameras(withGap, 4))
}

// Each column keeps the framing computed on its own shape before sharing.
func TestFrameThenShare(t *testing.T) {
	f := newFactory(t)
	g, err := f.Assemble(writeMesh(t, "a.obj", cubeOBJ), writeMesh(t, "b.obj", wedgeOBJ))
	require.NoError(t, err)
	require.NoError(t, g.Layout(1024, 1024))
	rs := g.Renderers()

	PrepareCameras(rs, render.RGB(112, 128, 144), DefaultAzimuth, DefaultElevation)
	framed := make([]math3d.Vec3, 4)
	for col := range 4 {
		framed[col] = rs[col].ActiveCamera().Position()
	}
	require.Equal(t, 12, LinkCameras(rs, 4))

	for i, r := range rs {
		assert.Equal(t, framed[i%4], r.ActiveCamera().Position(), "renderer %d", i)
	}
	assert.NotEqual(t, framed[0], framed[3])
}
