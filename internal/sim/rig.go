// Package sim models the tethered rig so the controller can run without
// hardware. The plant stands in for the PWM actuator, the altitude ADC and
// the yaw encoder lines.
package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"heli-rig/internal/yaw"
)

const (
	// Main duty that exactly holds the rig on the ground with full tension.
	hoverDuty = 40.0
	climbTau  = 800 * time.Millisecond

	// Yaw rate in ticks/s per percent of net tail authority.
	yawGain = 6.0
	// Fraction of main duty that turns into reaction torque against the tail.
	reaction = 0.5
	yawTau   = 300 * time.Millisecond
)

type Config struct {
	GroundCode      int
	FullScaleOffset int
	Noise           float64
	Seed            int64
	StartTicks      int
	TicksPerRev     int
}

// EdgeSink receives synthesized encoder edges.
type EdgeSink interface {
	Edge(a, b bool)
}

// Rig is safe for concurrent use: the control loop drives the actuator
// methods, the sample timer calls Convert and Run advances the plant.
type Rig struct {
	mu  sync.Mutex
	cfg Config
	rng *rand.Rand

	mainDuty, tailDuty int
	mainOn, tailOn     bool

	height float64 // fraction of full travel, 0..1
	rate   float64 // ticks/s
	pos    float64 // absolute ticks, home at multiples of TicksPerRev
	tick   int64

	edges  EdgeSink
	onHome func()
}

func NewRig(cfg Config) *Rig {
	if cfg.FullScaleOffset <= 0 {
		cfg.FullScaleOffset = 993
	}
	if cfg.GroundCode <= 0 {
		cfg.GroundCode = 2600
	}
	if cfg.TicksPerRev <= 0 {
		cfg.TicksPerRev = yaw.DefaultTicksPerRev
	}
	return &Rig{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		pos:  float64(cfg.StartTicks),
		tick: int64(cfg.StartTicks),
	}
}

// Attach routes encoder edges and home sensor falling edges. Both are called
// from the goroutine running Step.
func (r *Rig) Attach(edges EdgeSink, onHome func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges = edges
	r.onHome = onHome
}

// Levels returns the current encoder line levels.
func (r *Rig) Levels() (a, b bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return yaw.Levels(yaw.StateForTick(r.tick))
}

func (r *Rig) SetMainDuty(p int) error {
	r.mu.Lock()
	r.mainDuty = p
	r.mu.Unlock()
	return nil
}

func (r *Rig) SetTailDuty(p int) error {
	r.mu.Lock()
	r.tailDuty = p
	r.mu.Unlock()
	return nil
}

func (r *Rig) EnableMain(on bool) error {
	r.mu.Lock()
	r.mainOn = on
	r.mu.Unlock()
	return nil
}

func (r *Rig) EnableTail(on bool) error {
	r.mu.Lock()
	r.tailOn = on
	r.mu.Unlock()
	return nil
}

// Convert returns the 12-bit code the altitude sensor would produce: the
// ground code at rest, falling by FullScaleOffset at full height.
func (r *Rig) Convert() (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := float64(r.cfg.GroundCode) - r.height*float64(r.cfg.FullScaleOffset)
	if r.cfg.Noise > 0 {
		v += r.cfg.Noise * r.rng.NormFloat64()
	}
	v = math.Round(v)
	if v < 0 {
		v = 0
	}
	if v > 4095 {
		v = 4095
	}
	return uint16(v), nil
}

func (r *Rig) effective() (main, tail float64) {
	if r.mainOn {
		main = float64(r.mainDuty)
	}
	if r.tailOn {
		tail = float64(r.tailDuty)
	}
	return main, tail
}

// Step advances the plant by dt of simulated time.
func (r *Rig) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	main, tail := r.effective()
	s := dt.Seconds()

	target := (main - hoverDuty) / (100 - hoverDuty)
	target = math.Max(0, math.Min(1, target))
	r.height += (target - r.height) * math.Min(1, s/climbTau.Seconds())

	wantRate := yawGain * (tail - reaction*main)
	if r.height == 0 && main == 0 && tail == 0 {
		wantRate = 0
	}
	r.rate += (wantRate - r.rate) * math.Min(1, s/yawTau.Seconds())
	r.pos += r.rate * s

	next := int64(math.Floor(r.pos))
	for r.tick != next {
		if next > r.tick {
			r.tick++
		} else {
			r.tick--
		}
		if r.edges != nil {
			r.edges.Edge(yaw.Levels(yaw.StateForTick(r.tick)))
		}
		if r.tick%int64(r.cfg.TicksPerRev) == 0 && r.onHome != nil {
			r.onHome()
		}
	}
}

// State is a snapshot for logs and tests.
type State struct {
	Height   float64
	Tick     int64
	MainDuty int
	TailDuty int
}

func (r *Rig) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	main, tail := r.effective()
	return State{Height: r.height, Tick: r.tick, MainDuty: int(main), TailDuty: int(tail)}
}

// Run steps the plant every period, scaling simulated time by speed.
func (r *Rig) Run(ctx context.Context, period time.Duration, speed float64) {
	if period <= 0 {
		period = time.Millisecond
	}
	if speed <= 0 {
		speed = 1
	}
	step := time.Duration(float64(period) * speed)
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Step(step)
		}
	}
}
