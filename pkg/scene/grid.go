package scene

import (
	"fmt"

	"fortio.org/log"
	"github.com/taigrr/shadegrid/pkg/layout"
	"github.com/taigrr/shadegrid/pkg/render"
)

// Grid holds renderers in row-major order, indexed by (row, col). Rows are
// shading modes and columns are shapes in the assembled grid.
type Grid struct {
	Rows, Cols int
	cells      []*render.Renderer
}

// NewGrid returns an empty rows x cols grid.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d", layout.ErrInvalidGrid, rows, cols)
	}
	return &Grid{Rows: rows, Cols: cols, cells: make([]*render.Renderer, rows*cols)}, nil
}

func (g *Grid) index(row, col int) (int, error) {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return 0, fmt.Errorf("%w: cell (%d,%d) outside %dx%d", layout.ErrInvalidGrid, row, col, g.Rows, g.Cols)
	}
	return row*g.Cols + col, nil
}

// Set places r at (row, col).
func (g *Grid) Set(row, col int, r *render.Renderer) error {
	i, err := g.index(row, col)
	if err != nil {
		return err
	}
	g.cells[i] = r
	return nil
}

// At returns the renderer at (row, col), or nil outside the grid.
func (g *Grid) At(row, col int) *render.Renderer {
	i, err := g.index(row, col)
	if err != nil {
		return nil
	}
	return g.cells[i]
}

// Renderers returns the cells in row-major order.
func (g *Grid) Renderers() []*render.Renderer {
	return g.cells
}

// Layout gives every renderer its grid viewport and the aspect ratio that
// viewport has on a w x h surface, so a later ResetCamera frames for it.
func (g *Grid) Layout(w, h int) error {
	vps, err := layout.Grid(g.Rows, g.Cols)
	if err != nil {
		return err
	}
	for i, r := range g.cells {
		if r == nil {
			return fmt.Errorf("%w: cell %d is empty", layout.ErrInvalidGrid, i)
		}
		r.SetViewport(vps[i])
		r.SetAspect(vps[i].AspectRatio(w, h))
	}
	return nil
}

// Assemble builds the full grid: one row per shading mode, one column per
// shape. meshA and meshB are the files for the two mesh columns.
func (f *Factory) Assemble(meshA, meshB string) (*Grid, error) {
	g, err := NewGrid(len(ShadingModes), len(ShapeKinds))
	if err != nil {
		return nil, err
	}
	paths := map[ShapeKind]string{ExternalMeshA: meshA, ExternalMeshB: meshB}
	for row, mode := range ShadingModes {
		for col, shape := range ShapeKinds {
			r, err := f.Build(shape, mode, paths[shape])
			if err != nil {
				return nil, err
			}
			if err := g.Set(row, col, r); err != nil {
				return nil, err
			}
		}
	}
	log.Infof("assembled %dx%d grid", g.Rows, g.Cols)
	return g, nil
}
