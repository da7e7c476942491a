package scene

import (
	"errors"
	"fmt"

	"fortio.org/log"
	"github.com/taigrr/shadegrid/pkg/math3d"
	"github.com/taigrr/shadegrid/pkg/models"
	"github.com/taigrr/shadegrid/pkg/render"
)

var (
	// ErrMissingArgument is returned when a mesh shape is built without a path.
	ErrMissingArgument = errors.New("missing argument")
	// ErrResourceNotFound is returned when a mesh path cannot be read,
	// parsed, or yields no triangles.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrUnknownShape is returned for a ShapeKind outside the defined set.
	ErrUnknownShape = errors.New("unknown shape")
)

// Material constants shared by the model and iso-surface renderers.
const (
	shinyDiffuse       = 1.0
	shinySpecular      = 1.0
	shinySpecularPower = 30.0

	// IsoScalarMin and IsoScalarMax bound the iso-surface colour map.
	IsoScalarMin = 0.0
	IsoScalarMax = 7.0
)

// Factory builds one renderer per (shape, shading mode) pair. Mesh files are
// read once per path and the iso-surface is contoured once; every renderer
// gets its own copy of the geometry.
type Factory struct {
	// LoadMesh reads a mesh file. Defaults to models.Load.
	LoadMesh func(path string) (*models.Mesh, error)

	palette Palette
	sphere  math3d.Vec3
	meshA   math3d.Vec3
	meshB   math3d.Vec3

	meshes map[string]*models.Mesh
	iso    *models.Mesh
}

// NewFactory resolves the palette and returns a factory using it.
func NewFactory(p Palette) (*Factory, error) {
	f := &Factory{
		LoadMesh: models.Load,
		palette:  p,
		meshes:   make(map[string]*models.Mesh),
	}
	var err error
	if f.sphere, err = LookupColor(p.Sphere); err != nil {
		return nil, fmt.Errorf("sphere colour: %w", err)
	}
	if f.meshA, err = LookupColor(p.MeshA); err != nil {
		return nil, fmt.Errorf("mesh A colour: %w", err)
	}
	if f.meshB, err = LookupColor(p.MeshB); err != nil {
		return nil, fmt.Errorf("mesh B colour: %w", err)
	}
	return f, nil
}

// Palette returns the colours the factory was built with.
func (f *Factory) Palette() Palette { return f.palette }

// Build returns a new renderer holding exactly one actor for shape, drawn in
// mode. meshPath is only used by the two mesh shapes.
func (f *Factory) Build(shape ShapeKind, mode ShadingMode, meshPath string) (*render.Renderer, error) {
	mesh, err := f.geometry(shape, meshPath)
	if err != nil {
		return nil, err
	}

	mapper := render.NewMapper(mesh)
	actor := render.NewActor(mapper)
	prop := actor.Property()

	ren := render.NewRenderer()
	ren.Name = SlotName(shape, mode)

	switch shape {
	case ProceduralSphere:
		prop.SetColor(f.sphere)
		ren.AddLight(sphereLight())
	case ExternalMeshA:
		prop.SetColor(f.meshA)
		shiny(prop)
		ren.AddLight(cameraLight())
	case ImplicitIsoSurface:
		mapper.SetScalarRange(IsoScalarMin, IsoScalarMax)
		shiny(prop)
		ren.AddLight(cameraLight())
	case ExternalMeshB:
		// no light of its own: the renderer falls back to a headlight
		prop.SetColor(f.meshB)
	}
	ApplyShading(prop, mode)

	ren.AddActor(actor)
	log.Debugf("built %s: %d vertices, %d triangles, %d lights",
		ren.Name, mesh.VertexCount(), mesh.TriangleCount(), len(ren.Lights()))
	return ren, nil
}

// ApplyShading sets the representation or interpolation for mode.
func ApplyShading(prop *render.Property, mode ShadingMode) {
	switch mode {
	case Wireframe:
		prop.SetRepresentation(render.Wireframe)
	case Flat:
		prop.SetInterpolation(render.Flat)
	case Gouraud:
		prop.SetInterpolation(render.Gouraud)
	case Phong:
		prop.SetInterpolation(render.Phong)
	}
}

// shiny gives a red diffuse surface with a strong, tight highlight. Only the
// diffuse colour changes, so the ambient and specular colours stay as set.
func shiny(prop *render.Property) {
	prop.SetDiffuseColor(math3d.V3(1, 0, 0))
	prop.Diffuse = shinyDiffuse
	prop.Specular = shinySpecular
	prop.SpecularPower = shinySpecularPower
}

// sphereLight is a spot at (4,5,1) aimed at the origin with a red highlight.
func sphereLight() *render.Light {
	l := render.NewLight()
	l.Positional = true
	l.Position = math3d.V3(4, 5, 1)
	l.FocalPoint = math3d.Zero3()
	l.SpecularColor = clampColor(math3d.V3(255, 0, 0))
	l.Intensity = 1
	return l
}

// cameraLight is a white light at (10,10,10) in camera coordinates.
func cameraLight() *render.Light {
	l := render.NewLight()
	l.Type = render.CameraLight
	l.Position = math3d.V3(10, 10, 10)
	l.SetColor(math3d.V3(1, 1, 1))
	return l
}

func clampColor(c math3d.Vec3) math3d.Vec3 {
	return c.Max(math3d.Zero3()).Min(math3d.V3(1, 1, 1))
}

// geometry returns a private copy of the mesh for shape.
func (f *Factory) geometry(shape ShapeKind, meshPath string) (*models.Mesh, error) {
	switch shape {
	case ProceduralSphere:
		return models.NewSphereSource().Build()
	case ImplicitIsoSurface:
		if f.iso == nil {
			iso, err := models.NewQuadricIsoSurface().Build()
			if err != nil {
				return nil, err
			}
			log.Debugf("iso-surface: %d triangles", iso.TriangleCount())
			f.iso = iso
		}
		return f.iso.Clone(), nil
	case ExternalMeshA, ExternalMeshB:
		mesh, err := f.mesh(meshPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", shape, err)
		}
		return mesh.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownShape, int(shape))
}

func (f *Factory) mesh(path string) (*models.Mesh, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: mesh path", ErrMissingArgument)
	}
	if m, ok := f.meshes[path]; ok {
		return m, nil
	}
	m, err := f.LoadMesh(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceNotFound, path, err)
	}
	if m == nil || m.TriangleCount() == 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrResourceNotFound, path, models.ErrEmptyMesh)
	}
	log.Infof("loaded %s: %d vertices, %d triangles", path, m.VertexCount(), m.TriangleCount())
	f.meshes[path] = m
	return m, nil
}
