package flight

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"heli-rig/internal/pid"
	"heli-rig/internal/telemetry"
)

// DefaultDT is the fixed control period handed to the PID loops.
const DefaultDT = 5 * time.Millisecond

// Actuator drives the two rotors. Duties are percentages in 0..100.
type Actuator interface {
	SetMainDuty(p int) error
	SetTailDuty(p int) error
	EnableMain(on bool) error
	EnableTail(on bool) error
}

type InputSource interface {
	Poll() Inputs
}

type AltitudeSource interface {
	// Update drains the latest samples and returns the altitude percentage.
	Update() int32
}

type YawSource interface {
	Degrees() int32
	SearchingReference() bool
}

type SlowTicker interface {
	TakeSlowTick() bool
}

// DutyPrecedence decides what reaches the actuator in a pass where the mode
// assigned fixed duties (orienting, and the pass leaving orienting).
type DutyPrecedence string

const (
	// PrecedenceMode sends the mode's fixed duties; the PID outputs are still
	// computed so their state keeps evolving. This follows the rig firmware,
	// which wrote the mode's duty to the PWM before running the PID step.
	PrecedenceMode DutyPrecedence = "mode"
	// PrecedencePID always sends the PID outputs.
	PrecedencePID DutyPrecedence = "pid"
)

type Config struct {
	DT         time.Duration
	Precedence DutyPrecedence
	Machine    MachineConfig

	AltitudePID pid.Config
	YawPID      pid.Config
}

type Deps struct {
	Altitude AltitudeSource
	Yaw      YawSource
	Inputs   InputSource
	Actuator Actuator
	SlowTick SlowTicker
	// Telemetry is optional.
	Telemetry telemetry.Sink
}

// Status is the controller's view after the most recent pass.
type Status struct {
	Mode            Mode
	Altitude        int32
	DesiredAltitude int32
	Yaw             int32
	DesiredYaw      int32
	MainDuty        int
	TailDuty        int
	OutputsEnabled  bool
	Passes          uint64
}

// Controller is the cooperative control loop. All methods must be called from
// one goroutine.
type Controller struct {
	cfg Config
	d   Deps

	machine *Machine
	altPID  *pid.Controller
	yawPID  *pid.Controller

	status Status

	lastActErr  string
	lastSinkErr string
}

func New(cfg Config, d Deps) (*Controller, error) {
	if d.Altitude == nil || d.Yaw == nil || d.Inputs == nil || d.Actuator == nil {
		return nil, errors.New("flight: altitude, yaw, inputs and actuator are required")
	}
	if cfg.DT <= 0 {
		cfg.DT = DefaultDT
	}
	switch cfg.Precedence {
	case "":
		cfg.Precedence = PrecedenceMode
	case PrecedenceMode, PrecedencePID:
	default:
		return nil, fmt.Errorf("flight: unknown duty precedence %q", cfg.Precedence)
	}
	if cfg.Machine == (MachineConfig{}) {
		cfg.Machine = DefaultMachineConfig()
	}
	return &Controller{
		cfg:     cfg,
		d:       d,
		machine: NewMachine(cfg.Machine),
		altPID:  pid.New(cfg.AltitudePID),
		yawPID:  pid.New(cfg.YawPID),
	}, nil
}

func (c *Controller) Status() Status { return c.status }

// Pass runs one iteration of the control loop.
func (c *Controller) Pass() {
	alt := c.d.Altitude.Update()
	yaw := c.d.Yaw.Degrees()
	in := c.d.Inputs.Poll()

	fx := c.machine.Step(in, Sensed{
		Altitude:           alt,
		Yaw:                yaw,
		SearchingReference: c.d.Yaw.SearchingReference(),
	})
	if fx.ResetYaw {
		yaw = 0
	}
	var errs []error
	if fx.EnableOutputs {
		errs = append(errs, c.setOutputs(true))
	}
	if fx.DisableOutputs {
		errs = append(errs, c.setOutputs(false))
	}

	desiredAlt, desiredYaw := c.machine.Desired()
	mainDuty := c.altPID.Update(float64(alt), float64(desiredAlt), c.cfg.DT)
	tailDuty := c.yawPID.Update(float64(yaw), float64(desiredYaw), c.cfg.DT)
	if fx.FixedDuty && c.cfg.Precedence == PrecedenceMode {
		mainDuty, tailDuty = fx.MainDuty, fx.TailDuty
	}

	errs = append(errs,
		c.d.Actuator.SetMainDuty(mainDuty),
		c.d.Actuator.SetTailDuty(tailDuty),
	)
	c.reportActuator(errors.Join(errs...))

	c.status.Mode = c.machine.Mode()
	c.status.Altitude = alt
	c.status.DesiredAltitude = desiredAlt
	c.status.Yaw = yaw
	c.status.DesiredYaw = desiredYaw
	c.status.MainDuty = mainDuty
	c.status.TailDuty = tailDuty
	c.status.Passes++

	if c.d.SlowTick != nil && c.d.SlowTick.TakeSlowTick() {
		c.publish()
	}
}

// Run calls Pass once per DT until ctx is done, then disables both outputs.
func (c *Controller) Run(ctx context.Context) {
	t := time.NewTicker(c.cfg.DT)
	defer t.Stop()
	defer c.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Pass()
		}
	}
}

// Shutdown zeroes both duties and disables the outputs.
func (c *Controller) Shutdown() {
	c.reportActuator(errors.Join(
		c.d.Actuator.SetMainDuty(0),
		c.d.Actuator.SetTailDuty(0),
		c.setOutputs(false),
	))
}

func (c *Controller) Record() telemetry.Record {
	s := c.status
	return telemetry.Record{
		MainDuty:        s.MainDuty,
		TailDuty:        s.TailDuty,
		Altitude:        s.Altitude,
		DesiredAltitude: s.DesiredAltitude,
		Yaw:             s.Yaw,
		DesiredYaw:      s.DesiredYaw,
		Mode:            s.Mode.String(),
	}
}

func (c *Controller) publish() {
	if c.d.Telemetry == nil {
		return
	}
	err := c.d.Telemetry.Publish(c.Record())
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg != c.lastSinkErr {
		c.lastSinkErr = msg
		if err != nil {
			log.Printf("telemetry publish failed: %v", err)
		}
	}
}

func (c *Controller) setOutputs(on bool) error {
	c.status.OutputsEnabled = on
	return errors.Join(c.d.Actuator.EnableMain(on), c.d.Actuator.EnableTail(on))
}

// reportActuator logs actuator failures once per distinct message so a broken
// output does not flood the log at the loop rate.
func (c *Controller) reportActuator(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == c.lastActErr {
		return
	}
	c.lastActErr = msg
	if err != nil {
		log.Printf("actuator error: %v", err)
	} else {
		log.Printf("actuator recovered")
	}
}
