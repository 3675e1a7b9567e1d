package pid

import (
	"math"
	"time"
)

// Default output clamp, in duty-cycle percent.
const (
	DefaultOutMin = 2
	DefaultOutMax = 98
)

type Gains struct {
	Kp, Ki, Kd float64
}

var (
	AltitudeGains = Gains{Kp: 1.5, Ki: 0.0015, Kd: 0}
	YawGains      = Gains{Kp: 0.3, Ki: 0.0015, Kd: 0}
)

type Config struct {
	Gains
	OutMin float64
	OutMax float64
}

// Controller is a per-axis PID producing a clamped duty percentage.
//
// The integral term is only committed when the output lands inside the clamp
// range; a saturated call leaves it untouched (conditional integration).
//
// Not safe for concurrent use.
type Controller struct {
	cfg Config

	integral  float64
	prevError float64
}

func New(cfg Config) *Controller {
	if cfg.OutMin == 0 && cfg.OutMax == 0 {
		cfg.OutMin = DefaultOutMin
		cfg.OutMax = DefaultOutMax
	}
	return &Controller{cfg: cfg}
}

// Update runs one step against the fixed loop period dt and returns the
// rounded, clamped output.
func (c *Controller) Update(current, desired float64, dt time.Duration) int {
	err := desired - current
	sec := dt.Seconds()

	p := c.cfg.Kp * err
	if sec <= 0 {
		// No time step: proportional only, state untouched.
		return int(math.Round(clamp(p, c.cfg.OutMin, c.cfg.OutMax)))
	}
	dI := c.cfg.Ki * err * sec
	d := (c.cfg.Kd / sec) * (err - c.prevError)
	out := p + (c.integral + dI) + d
	if math.IsNaN(out) {
		return int(c.cfg.OutMin)
	}
	c.prevError = err

	switch {
	case out < c.cfg.OutMin:
		out = c.cfg.OutMin
	case out > c.cfg.OutMax:
		out = c.cfg.OutMax
	default:
		c.integral += dI
	}
	return int(math.Round(out))
}

func (c *Controller) Integral() float64 { return c.integral }

func (c *Controller) Reset() {
	c.integral = 0
	c.prevError = 0
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
