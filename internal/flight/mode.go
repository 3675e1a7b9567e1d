package flight

import "fmt"

type Mode uint8

const (
	Landed Mode = iota
	Orienting
	Flying
	Landing
)

var modeNames = [...]string{"landed", "orienting", "flying", "landing"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Inputs is one poll of the operator controls. Button fields are true when a
// debounced push happened since the previous poll. Switch is the current
// level of the two-position mode switch.
type Inputs struct {
	Switch bool

	Up    bool
	Down  bool
	Left  bool
	Right bool
}

// Sensed carries the measurements the machine reacts to.
type Sensed struct {
	Altitude int32
	Yaw      int32

	// SearchingReference is true until the yaw home sensor has fired.
	SearchingReference bool
}

// Effects are the side effects of one Step, applied by the control loop.
type Effects struct {
	EnableOutputs  bool
	DisableOutputs bool

	// FixedDuty is set when the mode assigned duties of its own this pass.
	FixedDuty bool
	MainDuty  int
	TailDuty  int

	// ResetYaw asks the loop to treat the current yaw as 0 for this pass.
	ResetYaw bool
}

type MachineConfig struct {
	OrientMainDuty int
	OrientTailDuty int

	AltitudeStep int32
	AltitudeMin  int32
	AltitudeMax  int32
	YawStep      int32

	LandingYawTolerance int32
}

func DefaultMachineConfig() MachineConfig {
	return MachineConfig{
		OrientMainDuty:      5,
		OrientTailDuty:      10,
		AltitudeStep:        10,
		AltitudeMin:         0,
		AltitudeMax:         100,
		YawStep:             15,
		LandingYawTolerance: 5,
	}
}

// Machine is the four-state flight mode machine. It owns the operator
// setpoints. Not safe for concurrent use.
type Machine struct {
	cfg MachineConfig

	mode         Mode
	programStart bool
	switchPrev   bool

	desiredAltitude int32
	desiredYaw      int32
}

func NewMachine(cfg MachineConfig) *Machine {
	return &Machine{cfg: cfg, mode: Landed, programStart: true}
}

func (m *Machine) Mode() Mode { return m.mode }

func (m *Machine) Desired() (altitude, yaw int32) {
	return m.desiredAltitude, m.desiredYaw
}

// Step advances the machine by one control-loop pass.
func (m *Machine) Step(in Inputs, s Sensed) Effects {
	var fx Effects
	sw := in.Switch

	switch m.mode {
	case Landed:
		if sw && sw != m.switchPrev {
			m.switchPrev = sw
			if m.programStart {
				m.programStart = false
				m.mode = Orienting
				fx.EnableOutputs = true
			} else {
				m.mode = Flying
			}
		}

	case Orienting:
		if !s.SearchingReference {
			m.desiredAltitude = 0
			m.desiredYaw = 0
			m.mode = Flying
			fx.ResetYaw = true
			fx.FixedDuty = true
			fx.MainDuty = 0
			fx.TailDuty = 0
		} else {
			fx.FixedDuty = true
			fx.MainDuty = m.cfg.OrientMainDuty
			fx.TailDuty = m.cfg.OrientTailDuty
		}

	case Flying:
		if !sw && sw != m.switchPrev {
			m.switchPrev = sw
			m.mode = Landing
			break
		}
		m.applyButtons(in)

	case Landing:
		m.desiredAltitude = 0
		m.desiredYaw = 0
		tol := m.cfg.LandingYawTolerance
		if s.Altitude == 0 && s.Yaw >= -tol && s.Yaw <= tol {
			m.mode = Landed
			fx.DisableOutputs = true
		}
	}
	return fx
}

func (m *Machine) applyButtons(in Inputs) {
	if in.Up {
		m.desiredAltitude = clampInt32(m.desiredAltitude+m.cfg.AltitudeStep, m.cfg.AltitudeMin, m.cfg.AltitudeMax)
	}
	if in.Down {
		m.desiredAltitude = clampInt32(m.desiredAltitude-m.cfg.AltitudeStep, m.cfg.AltitudeMin, m.cfg.AltitudeMax)
	}
	if in.Left {
		m.desiredYaw += m.cfg.YawStep
	}
	if in.Right {
		m.desiredYaw -= m.cfg.YawStep
	}
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
