package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heli-rig/internal/yaw"
)

func quietRig() *Rig {
	return NewRig(Config{GroundCode: 2600, FullScaleOffset: 993, StartTicks: 150, TicksPerRev: 448})
}

func TestRig_ConvertAtRest(t *testing.T) {
	r := quietRig()
	v, err := r.Convert()
	require.NoError(t, err)
	assert.Equal(t, uint16(2600), v)
}

func TestRig_FullThrustReachesTop(t *testing.T) {
	r := quietRig()
	require.NoError(t, r.EnableMain(true))
	require.NoError(t, r.SetMainDuty(100))
	for i := 0; i < 4000; i++ {
		r.Step(5 * time.Millisecond)
	}
	assert.InDelta(t, 1.0, r.State().Height, 1e-6)
	v, _ := r.Convert()
	assert.Equal(t, uint16(2600-993), v)
}

func TestRig_DisabledOutputsDoNothing(t *testing.T) {
	r := quietRig()
	require.NoError(t, r.SetMainDuty(100))
	require.NoError(t, r.SetTailDuty(100))
	for i := 0; i < 200; i++ {
		r.Step(5 * time.Millisecond)
	}
	st := r.State()
	assert.Equal(t, 0.0, st.Height)
	assert.Equal(t, int64(150), st.Tick)
	assert.Equal(t, 0, st.MainDuty)
}

func TestRig_EdgesDriveEncoderAndHome(t *testing.T) {
	r := quietRig()
	enc := yaw.NewEncoder(448)
	enc.Seed(r.Levels())
	r.Attach(enc, enc.Reference)

	require.NoError(t, r.EnableTail(true))
	require.NoError(t, r.SetTailDuty(100))

	homed := false
	for i := 0; i < 2000 && r.State().Tick < 800; i++ {
		r.Step(5 * time.Millisecond)
		tick := r.State().Tick
		if enc.SearchingReference() {
			require.Equal(t, int32(tick-150), enc.Ticks(), "step %d", i)
		} else {
			homed = true
			require.Equal(t, int32(tick-448), enc.Ticks(), "step %d", i)
		}
	}
	assert.True(t, homed)
	assert.Greater(t, r.State().Tick, int64(448))
}

func TestRig_ReactionTorqueTurnsBackwards(t *testing.T) {
	r := quietRig()
	require.NoError(t, r.EnableMain(true))
	require.NoError(t, r.SetMainDuty(60))
	for i := 0; i < 200; i++ {
		r.Step(5 * time.Millisecond)
	}
	assert.Less(t, r.State().Tick, int64(150))
}

func TestRig_NoiseIsSeeded(t *testing.T) {
	a := NewRig(Config{Noise: 8, Seed: 42})
	b := NewRig(Config{Noise: 8, Seed: 42})
	for i := 0; i < 20; i++ {
		va, _ := a.Convert()
		vb, _ := b.Convert()
		require.Equal(t, va, vb)
	}
}

func TestRig_RunStopsOnCancel(t *testing.T) {
	r := quietRig()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond, 1)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}
