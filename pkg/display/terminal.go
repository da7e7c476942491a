package display

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/log"
	"fortio.org/terminal"
	"fortio.org/terminal/ansipixels"
)

// pointerPixel maps a terminal mouse position (1-based cells) to a surface
// pixel. Each text row holds two pixel rows.
func pointerPixel(mx, my int) (px, py int) {
	return max(mx-1, 0), max(my-1, 0) * 2
}

// Start opens the terminal, draws the first frame and runs the input loop
// until a quit key or an interrupt. The surface follows the terminal
// size. The display is Terminated when Start returns.
func (d *Display) Start(ctx context.Context) error {
	if err := d.require("start", Assembled, Rendering); err != nil {
		return err
	}

	ap := ansipixels.NewAnsiPixels(d.FPS)
	if err := ap.Open(); err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer func() {
		ap.ShowCursor()
		ap.MouseTrackingOff()
		ap.Out.Flush()
		ap.Restore()
		d.state = Terminated
	}()
	ap.SyncBackgroundColor()
	ap.MouseTrackingOn()
	ap.HideCursor()

	d.Resize(ap.W, ap.H*2)
	if err := d.Render(); err != nil {
		return err
	}
	if err := d.advance(Interactive, Rendering); err != nil {
		return err
	}
	log.Infof("interactive on %dx%d cells", ap.W, ap.H)

	in := NewInteractor(d, d.FPS)
	hud := NewHUD()
	dirty := true

	ap.OnMouse = func() {
		px, py := pointerPixel(ap.Mx, ap.My)
		changed := in.Hover(px, py)
		switch {
		case ap.MouseWheelUp():
			changed = in.Wheel(true, px, py) || changed
		case ap.MouseWheelDown():
			changed = in.Wheel(false, px, py) || changed
		case ap.LeftClick():
			changed = in.Press(px, py) || changed
		case ap.LeftDrag():
			changed = in.Drag(px, py) || changed
		case ap.MouseRelease():
			changed = in.Release() || changed
		}
		dirty = dirty || changed
	}
	ap.OnResize = func() error {
		d.Resize(ap.W, ap.H*2)
		dirty = true
		return nil
	}

	var px, py int
	err := ap.FPSTicks(ctx, func(context.Context) bool {
		px, py = pointerPixel(ap.Mx, ap.My)
		for _, b := range ap.Data {
			changed, quit := in.Key(b, px, py)
			if quit {
				return false
			}
			dirty = dirty || changed
		}
		dirty = in.Tick() || dirty
		if !dirty {
			return true
		}
		dirty = false

		if err := d.Render(); err != nil {
			log.Errf("render: %v", err)
			return false
		}
		ap.ClearScreen()
		if err := ap.ShowScaledImage(d.fb.ToImage()); err != nil {
			log.Errf("show image: %v", err)
			return false
		}
		hud.UpdateFPS()
		hud.Draw(ap, d)
		return true
	})
	// the interrupt that cancels ctx also reaches the terminal as a signal
	if err != nil && !errors.Is(err, terminal.ErrSignal) {
		return fmt.Errorf("input loop: %w", err)
	}
	return ctx.Err()
}
