package yaw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var forward = []State{Hold, Clockwise, High, CounterClockwise}

func feed(e *Encoder, states ...State) {
	for _, s := range states {
		e.Edge(Levels(s))
	}
}

func TestDecode_RoundTripsLevels(t *testing.T) {
	for _, s := range forward {
		a, b := Levels(s)
		assert.Equal(t, s, Decode(a, b), s.String())
	}
}

func TestEncoder_ForwardCycleCountsUp(t *testing.T) {
	e := NewEncoder(0)
	e.Seed(false, false)

	for cycle := 0; cycle < 3; cycle++ {
		feed(e, Clockwise, High, CounterClockwise, Hold)
	}
	assert.Equal(t, int32(12), e.Ticks())
}

func TestEncoder_ReverseCycleCountsDown(t *testing.T) {
	e := NewEncoder(0)
	e.Seed(false, false)

	feed(e, CounterClockwise, High, Clockwise, Hold)
	feed(e, CounterClockwise, High, Clockwise, Hold)
	assert.Equal(t, int32(-8), e.Ticks())
}

func TestEncoder_MixedCyclesNetOut(t *testing.T) {
	e := NewEncoder(0)
	e.Seed(false, false)

	// two forward, one backward
	feed(e, Clockwise, High, CounterClockwise, Hold)
	feed(e, Clockwise, High, CounterClockwise, Hold)
	feed(e, CounterClockwise, High, Clockwise, Hold)
	assert.Equal(t, int32(4), e.Ticks())
}

func TestEncoder_InvalidTransitionsAreNoOps(t *testing.T) {
	e := NewEncoder(0)
	e.Seed(false, false)

	feed(e, Hold, Hold) // duplicate edge
	feed(e, High)       // skipped a state
	feed(e, Hold)       // skipped back
	assert.Equal(t, int32(0), e.Ticks())

	feed(e, Clockwise, Clockwise)
	assert.Equal(t, int32(1), e.Ticks())
}

func TestEncoder_FirstEdgeWithoutSeedIgnored(t *testing.T) {
	e := NewEncoder(0)
	feed(e, Clockwise)
	assert.Equal(t, int32(0), e.Ticks())
	feed(e, High)
	assert.Equal(t, int32(1), e.Ticks())
}

func TestTicksToDegrees_Truncates(t *testing.T) {
	cases := []struct {
		ticks int32
		want  int32
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{112, 90},
		{448, 360},
		{500, 401},
		{-1, 0},
		{-2, -1},
		{-112, -90},
		{-500, -401},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TicksToDegrees(tc.ticks, DefaultTicksPerRev), "ticks=%d", tc.ticks)
	}
}

func TestEncoder_ReferenceZeroesOnce(t *testing.T) {
	e := NewEncoder(0)
	e.Seed(false, false)
	require.True(t, e.SearchingReference())

	feed(e, Clockwise, High, CounterClockwise, Hold, Clockwise)
	require.Equal(t, int32(5), e.Ticks())

	e.Reference()
	assert.False(t, e.SearchingReference())
	assert.Equal(t, int32(0), e.Ticks())

	feed(e, High, CounterClockwise)
	e.Reference()
	assert.Equal(t, int32(2), e.Ticks(), "later reference edges are ignored")
	assert.False(t, e.SearchingReference())
}

func TestEncoder_Degrees(t *testing.T) {
	e := NewEncoder(0)
	e.Seed(Levels(StateForTick(0)))
	for n := int64(1); n <= 112; n++ {
		e.Edge(Levels(StateForTick(n)))
	}
	assert.Equal(t, int32(90), e.Degrees())
}

func TestStateForTick_NegativeWraps(t *testing.T) {
	assert.Equal(t, CounterClockwise, StateForTick(-1))
	assert.Equal(t, High, StateForTick(-2))
	assert.Equal(t, Hold, StateForTick(-4))
}
