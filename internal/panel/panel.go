// Package panel latches operator input between control-loop polls.
package panel

import (
	"sync/atomic"

	"heli-rig/internal/flight"
)

type Button int

const (
	Up Button = iota
	Down
	Left
	Right
	numButtons
)

func (b Button) String() string {
	switch b {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Panel records debounced button pushes and the mode switch level. Press and
// SetSwitch are called from input event goroutines; Poll from the control
// loop. A push is reported by exactly one Poll, however many times the button
// was pushed in between.
type Panel struct {
	pressed [numButtons]atomic.Bool
	sw      atomic.Bool
}

func New() *Panel { return &Panel{} }

func (p *Panel) Press(b Button) {
	if b < 0 || b >= numButtons {
		return
	}
	p.pressed[b].Store(true)
}

func (p *Panel) SetSwitch(on bool) { p.sw.Store(on) }

func (p *Panel) Switch() bool { return p.sw.Load() }

// ToggleSwitch flips the switch level and returns the new level.
func (p *Panel) ToggleSwitch() bool {
	for {
		old := p.sw.Load()
		if p.sw.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (p *Panel) Poll() flight.Inputs {
	return flight.Inputs{
		Switch: p.sw.Load(),
		Up:     p.pressed[Up].Swap(false),
		Down:   p.pressed[Down].Swap(false),
		Left:   p.pressed[Left].Swap(false),
		Right:  p.pressed[Right].Swap(false),
	}
}
