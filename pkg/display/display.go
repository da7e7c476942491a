// Package display composes the renderers of the grid into one surface and
// runs the interactive terminal session.
package display

import (
	"fmt"
	"image"

	"fortio.org/log"
	"github.com/taigrr/shadegrid/pkg/render"
)

// focusBrightness scales the background colour for the hovered cell's frame.
const focusBrightness = 1.6

// Display owns the shared framebuffer and the renderers drawn into it.
type Display struct {
	Title string
	FPS   float64

	// ShowLabels draws each renderer's name in the terminal HUD.
	ShowLabels bool

	renderers []*render.Renderer
	fb        *render.Framebuffer
	rast      *render.Rasterizer
	state     State
	focus     int // renderer under the pointer, -1 for none
}

// New creates a display with a width x height pixel surface.
func New(width, height int, title string) *Display {
	fb := render.NewFramebuffer(width, height)
	return &Display{
		Title: title,
		FPS:   30,
		fb:    fb,
		rast:  render.NewRasterizer(fb),
		focus: -1,
	}
}

// State returns the current lifecycle state.
func (d *Display) State() State { return d.state }

// Framebuffer returns the composed surface.
func (d *Display) Framebuffer() *render.Framebuffer { return d.fb }

// Renderers returns the renderers in the order they were added.
func (d *Display) Renderers() []*render.Renderer { return d.renderers }

// AddRenderer adds a renderer whose viewport is already set.
func (d *Display) AddRenderer(r *render.Renderer) error {
	if err := d.require("add renderer", Uninitialized); err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("add renderer: nil renderer")
	}
	d.renderers = append(d.renderers, r)
	return nil
}

// Assemble closes the renderer set.
func (d *Display) Assemble() error {
	if len(d.renderers) == 0 {
		return fmt.Errorf("%w: assemble with no renderers", ErrBadTransition)
	}
	if err := d.advance(Assembled, Uninitialized); err != nil {
		return err
	}
	log.Debugf("display assembled: %d renderers on %dx%d", len(d.renderers), d.fb.Width, d.fb.Height)
	return nil
}

// Resize changes the surface size. Viewports are normalized, so the layout
// follows.
func (d *Display) Resize(width, height int) {
	if width == d.fb.Width && height == d.fb.Height {
		return
	}
	d.fb.Resize(width, height)
	d.rast.Resize()
}

// Render draws every renderer into its viewport. The first call moves the
// display from Assembled to Rendering.
func (d *Display) Render() error {
	if d.state == Assembled {
		if err := d.advance(Rendering, Assembled); err != nil {
			return err
		}
	}
	if err := d.require("render", Rendering, Interactive); err != nil {
		return err
	}

	d.rast.ResetStats()
	for _, r := range d.renderers {
		r.Render(d.fb, d.rast)
	}
	if d.focus >= 0 && d.focus < len(d.renderers) {
		d.drawFocus(d.renderers[d.focus])
	}
	return nil
}

func (d *Display) drawFocus(r *render.Renderer) {
	rect := r.Viewport().PixelRect(d.fb.Width, d.fb.Height)
	if rect.Dx() < 2 || rect.Dy() < 2 {
		return
	}
	c := render.MultiplyColor(r.Background(), focusBrightness)
	x0, y0, x1, y1 := rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1
	d.fb.DrawLine(x0, y0, x1, y0, c)
	d.fb.DrawLine(x1, y0, x1, y1, c)
	d.fb.DrawLine(x1, y1, x0, y1, c)
	d.fb.DrawLine(x0, y1, x0, y0, c)
}

// Stats returns the primitive counts of the last Render.
func (d *Display) Stats() render.RasterStats { return d.rast.Stats }

// Snapshot writes the last rendered frame as a PNG.
func (d *Display) Snapshot(path string) error {
	if err := d.require("snapshot", Rendering, Interactive); err != nil {
		return err
	}
	if err := d.fb.SavePNG(path); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	log.Infof("wrote %dx%d snapshot to %s", d.fb.Width, d.fb.Height, path)
	return nil
}

// Image returns the last rendered frame.
func (d *Display) Image() *image.RGBA { return d.fb.ToImage() }

// RendererAt returns the index of the renderer whose viewport contains pixel
// (px, py), top-left origin, or -1.
func (d *Display) RendererAt(px, py int) int {
	for i, r := range d.renderers {
		if r.Viewport().ContainsPixel(px, py, d.fb.Width, d.fb.Height) {
			return i
		}
	}
	return -1
}

// SetFocus highlights the renderer at index i on the next Render; -1 clears
// it. It reports whether the focus changed.
func (d *Display) SetFocus(i int) bool {
	if i < -1 || i >= len(d.renderers) {
		i = -1
	}
	if i == d.focus {
		return false
	}
	d.focus = i
	return true
}

// Close ends the session from any live state.
func (d *Display) Close() error {
	return d.advance(Terminated, Uninitialized, Assembled, Rendering, Interactive)
}
