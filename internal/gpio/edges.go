// Package gpio binds rig inputs to Linux GPIO character-device lines.
package gpio

import (
	"sync/atomic"
	"time"

	"heli-rig/internal/panel"
)

const consumer = "heli-rig"

// QuadratureSink receives decoded A/B channel levels.
type QuadratureSink interface {
	Seed(a, b bool)
	Edge(a, b bool)
}

// PanelPins are BCM GPIO numbers for the operator panel.
type PanelPins struct {
	Up, Down, Left, Right int
	Switch                int
	ActiveLow             bool
	Debounce              time.Duration
}

// quadrature tracks both channel levels from per-line edge events. Events
// arriving before seed are dropped: the pin levels are not known yet.
type quadrature struct {
	offA, offB int
	a, b       bool
	seeded     atomic.Bool
	sink       QuadratureSink
}

func (q *quadrature) seed(a, b bool) {
	q.a, q.b = a, b
	q.sink.Seed(a, b)
	q.seeded.Store(true)
}

func (q *quadrature) event(offset int, rising bool) {
	if !q.seeded.Load() {
		return
	}
	switch offset {
	case q.offA:
		q.a = rising
	case q.offB:
		q.b = rising
	default:
		return
	}
	q.sink.Edge(q.a, q.b)
}

// buttonEdge reports whether an edge is a push for the given polarity.
func buttonEdge(rising, activeLow bool) bool {
	return rising != activeLow
}

// switchLevel maps a raw line level to the switch state.
func switchLevel(raw int, activeLow bool) bool {
	return (raw != 0) != activeLow
}

func pressFunc(p *panel.Panel, b panel.Button, activeLow bool) func(rising bool) {
	return func(rising bool) {
		if buttonEdge(rising, activeLow) {
			p.Press(b)
		}
	}
}
