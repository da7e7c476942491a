package render

import (
	"math"

	"github.com/taigrr/shadegrid/pkg/math3d"
)

// MeshRenderer is the geometry interface the rasterizer draws. It is
// satisfied by models.Mesh without importing it.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer extends MeshRenderer with an axis-aligned bounding box.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// ScalarMeshRenderer is a mesh that may carry one scalar per vertex.
type ScalarMeshRenderer interface {
	MeshRenderer
	GetScalar(i int) (float64, bool)
}

// Mapper turns a mesh into colours: scalars through the lookup table when
// present and ScalarVisibility is on, otherwise the actor's property colours.
type Mapper struct {
	input            BoundedMeshRenderer
	ScalarVisibility bool
	LookupTable      *LookupTable
}

// NewMapper creates a mapper with scalar colouring on and a [0, 1] range.
func NewMapper(input BoundedMeshRenderer) *Mapper {
	return &Mapper{
		input:            input,
		ScalarVisibility: true,
		LookupTable:      NewLookupTable(),
	}
}

// Input returns the mesh being mapped.
func (m *Mapper) Input() BoundedMeshRenderer { return m.input }

// SetScalarRange sets the scalar range mapped onto the lookup table.
func (m *Mapper) SetScalarRange(lo, hi float64) {
	m.LookupTable.SetTableRange(lo, hi)
}

// ScalarRange returns the scalar range mapped onto the lookup table.
func (m *Mapper) ScalarRange() (lo, hi float64) {
	return m.LookupTable.TableRange()
}

// scalarColors returns one colour per vertex, or nil when the mesh carries no
// scalars or scalar colouring is off.
func (m *Mapper) scalarColors() []math3d.Vec3 {
	if !m.ScalarVisibility {
		return nil
	}
	sm, ok := m.input.(ScalarMeshRenderer)
	if !ok || sm.VertexCount() == 0 {
		return nil
	}
	if _, has := sm.GetScalar(0); !has {
		return nil
	}
	colors := make([]math3d.Vec3, sm.VertexCount())
	for i := range colors {
		s, _ := sm.GetScalar(i)
		colors[i] = m.LookupTable.MapValue(s)
	}
	return colors
}

// Actor places a mapped mesh in the scene with an appearance.
type Actor struct {
	Mapper    *Mapper
	Transform math3d.Mat4
	Visible   bool

	property *Property
}

// NewActor creates a visible actor with an identity transform.
func NewActor(mapper *Mapper) *Actor {
	return &Actor{
		Mapper:    mapper,
		Transform: math3d.Identity(),
		Visible:   true,
		property:  NewProperty(),
	}
}

// Property returns the actor's appearance, creating it if needed.
func (a *Actor) Property() *Property {
	if a.property == nil {
		a.property = NewProperty()
	}
	return a.property
}

// SetProperty replaces the actor's appearance.
func (a *Actor) SetProperty(p *Property) { a.property = p }

// Bounds returns the world-space bounding box of the transformed mesh.
func (a *Actor) Bounds() (minB, maxB math3d.Vec3) {
	lo, hi := a.Mapper.Input().GetBounds()
	minB = math3d.V3(math.Inf(1), math.Inf(1), math.Inf(1))
	maxB = minB.Negate()
	for i := range 8 {
		corner := math3d.V3(
			pick(i&1 != 0, hi.X, lo.X),
			pick(i&2 != 0, hi.Y, lo.Y),
			pick(i&4 != 0, hi.Z, lo.Z),
		)
		p := a.Transform.MulVec3(corner)
		minB = minB.Min(p)
		maxB = maxB.Max(p)
	}
	return minB, maxB
}
