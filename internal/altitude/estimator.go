package altitude

// Defaults match the rig hardware: 10 samples averaged per pass, calibration
// latched on the 20th pass, and 993 raw units between the landed reading and
// the reading at full collective travel (the sensor output falls as the
// helicopter rises).
const (
	DefaultBufferSize        = 10
	DefaultCalibrationCycles = 20
	DefaultFullScaleOffset   = 993
)

type Config struct {
	CalibrationCycles int
	FullScaleOffset   int32
}

// Estimator turns the sample ring into a normalized altitude percentage.
//
// Not safe for concurrent use; it belongs to the control loop.
type Estimator struct {
	buf *Buffer
	cfg Config

	updates int
	latched bool
	landed  int32
	max     int32

	mean    int32
	percent int32
}

func NewEstimator(buf *Buffer, cfg Config) *Estimator {
	if cfg.CalibrationCycles <= 0 {
		cfg.CalibrationCycles = DefaultCalibrationCycles
	}
	if cfg.FullScaleOffset == 0 {
		cfg.FullScaleOffset = DefaultFullScaleOffset
	}
	return &Estimator{buf: buf, cfg: cfg}
}

// Mean returns the rounded mean of n samples summing to sum.
func Mean(sum int64, n int) int32 {
	if n <= 0 {
		return 0
	}
	d := 2 * int64(n)
	return int32((2*sum + int64(n)) / d)
}

// Percent maps a mean reading onto the calibrated span. It returns 0 when the
// span is empty, which is the case until calibration has latched.
func Percent(mean, landed, max int32) int32 {
	span := max - landed
	if span == 0 {
		return 0
	}
	return (mean - landed) * 100 / span
}

// Update drains one buffer's worth of samples and recomputes the altitude.
func (e *Estimator) Update() int32 {
	n := e.buf.Cap()
	var sum int64
	for i := 0; i < n; i++ {
		sum += int64(e.buf.Read())
	}
	e.mean = Mean(sum, n)

	e.updates++
	if !e.latched && e.updates >= e.cfg.CalibrationCycles {
		e.latched = true
		e.landed = e.mean
		e.max = e.landed - e.cfg.FullScaleOffset
	}

	e.percent = Percent(e.mean, e.landed, e.max)
	return e.percent
}

// Altitude returns the percentage computed by the last Update. It is not
// clamped to [0,100].
func (e *Estimator) Altitude() int32 { return e.percent }

func (e *Estimator) LastMean() int32 { return e.mean }

func (e *Estimator) Calibrated() bool { return e.latched }

// Baselines reports the landed and full-travel readings.
func (e *Estimator) Baselines() (landed, max int32, ok bool) {
	return e.landed, e.max, e.latched
}
