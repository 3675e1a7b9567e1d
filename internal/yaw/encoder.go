package yaw

import "sync/atomic"

// DefaultTicksPerRev is the quadrature resolution of the rig's yaw encoder.
const DefaultTicksPerRev = 448

// State is the decoded level of the two quadrature inputs.
type State uint8

const (
	stateUnknown State = iota
	Hold
	Clockwise
	High
	CounterClockwise
)

func (s State) String() string {
	switch s {
	case Hold:
		return "hold"
	case Clockwise:
		return "clockwise"
	case High:
		return "high"
	case CounterClockwise:
		return "counterclockwise"
	default:
		return "unknown"
	}
}

// Decode maps the A/B pin levels onto a quadrature state.
func Decode(a, b bool) State {
	switch {
	case !a && !b:
		return Hold
	case !a && b:
		return Clockwise
	case a && b:
		return High
	default:
		return CounterClockwise
	}
}

// step[prev][next] is +1 along Hold->Clockwise->High->CounterClockwise->Hold,
// -1 along the reverse, and 0 for every other pair (repeats, bounce, skipped
// states and the unknown start state).
var step = [5][5]int8{
	Hold:             {Clockwise: 1, CounterClockwise: -1},
	Clockwise:        {High: 1, Hold: -1},
	High:             {CounterClockwise: 1, Clockwise: -1},
	CounterClockwise: {Hold: 1, High: -1},
}

// Encoder accumulates quadrature ticks and captures the home reference.
//
// Edge and Reference are called from GPIO event handlers; Edge must only be
// called from one goroutine at a time. Ticks, Degrees and SearchingReference
// may be called concurrently from the control loop.
type Encoder struct {
	ticksPerRev int32

	state State
	prev  State

	ticks     atomic.Int32
	refFound  atomic.Bool
	triggered atomic.Bool
}

func NewEncoder(ticksPerRev int) *Encoder {
	if ticksPerRev <= 0 {
		ticksPerRev = DefaultTicksPerRev
	}
	return &Encoder{ticksPerRev: int32(ticksPerRev)}
}

// Seed sets the starting state from the pin levels read at startup, so the
// first edge can already be counted.
func (e *Encoder) Seed(a, b bool) {
	e.state = Decode(a, b)
	e.prev = e.state
}

// Edge processes the pin levels sampled after an edge on either input.
func (e *Encoder) Edge(a, b bool) {
	e.state = Decode(a, b)
	if d := step[e.prev][e.state]; d != 0 {
		e.ticks.Add(int32(d))
	}
	e.prev = e.state
}

// Reference handles a falling edge on the home sensor. The first call zeroes
// the tick count; later calls are ignored.
func (e *Encoder) Reference() {
	e.refFound.Store(true)
	if e.triggered.CompareAndSwap(false, true) {
		e.ticks.Store(0)
	}
}

// SearchingReference reports whether the home reference is still outstanding.
func (e *Encoder) SearchingReference() bool { return !e.refFound.Load() }

func (e *Encoder) Ticks() int32 { return e.ticks.Load() }

// Degrees converts the tick count to degrees, truncating toward zero.
func (e *Encoder) Degrees() int32 {
	return TicksToDegrees(e.ticks.Load(), e.ticksPerRev)
}

func TicksToDegrees(ticks, ticksPerRev int32) int32 {
	if ticksPerRev <= 0 {
		return 0
	}
	return int32(int64(ticks) * 360 / int64(ticksPerRev))
}

// Levels returns the A/B pin levels for a quadrature state. It is the inverse
// of Decode and is used to synthesize edges.
func Levels(s State) (a, b bool) {
	switch s {
	case Clockwise:
		return false, true
	case High:
		return true, true
	case CounterClockwise:
		return true, false
	default:
		return false, false
	}
}

// StateForTick returns the quadrature state at absolute position n when tick 0
// sits on Hold.
func StateForTick(n int64) State {
	switch ((n % 4) + 4) % 4 {
	case 0:
		return Hold
	case 1:
		return Clockwise
	case 2:
		return High
	default:
		return CounterClockwise
	}
}
