package display

import (
	"errors"
	"fmt"
	"slices"
)

// ErrBadTransition is returned when a Display method is called in a state
// that does not allow it.
var ErrBadTransition = errors.New("bad display state transition")

// State is the display lifecycle. States only move forward.
type State int

const (
	Uninitialized State = iota // accepting renderers
	Assembled                  // renderer set closed
	Rendering                  // first frame drawn
	Interactive                // input loop running
	Terminated
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Assembled:
		return "assembled"
	case Rendering:
		return "rendering"
	case Interactive:
		return "interactive"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// require checks that the current state is one of allowed.
func (d *Display) require(op string, allowed ...State) error {
	if slices.Contains(allowed, d.state) {
		return nil
	}
	return fmt.Errorf("%w: %s in state %s", ErrBadTransition, op, d.state)
}

// advance moves from one of from to next.
func (d *Display) advance(next State, from ...State) error {
	if err := d.require("enter "+next.String(), from...); err != nil {
		return err
	}
	d.state = next
	return nil
}
