package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"heli-rig/internal/adc"
	"heli-rig/internal/altitude"
	"heli-rig/internal/config"
	"heli-rig/internal/flight"
	"heli-rig/internal/gpio"
	"heli-rig/internal/i2c"
	"heli-rig/internal/panel"
	"heli-rig/internal/pid"
	"heli-rig/internal/pwm"
	"heli-rig/internal/sim"
	"heli-rig/internal/systick"
	"heli-rig/internal/telemetry"
	"heli-rig/internal/yaw"
)

// simStep is the plant integration period in sim mode.
const simStep = time.Millisecond

type rigRuntime struct {
	cfg config.Config

	ctrl     *flight.Controller
	timer    *systick.Timer
	encoder  *yaw.Encoder
	panel    *panel.Panel
	rig      *sim.Rig
	recorder *telemetry.Recorder
	keys     io.Reader

	// closers run in reverse order on Close.
	closers []io.Closer
}

func newRigRuntime(cfg config.Config, keys io.Reader) (_ *rigRuntime, err error) {
	rt := &rigRuntime{cfg: cfg, keys: keys, panel: panel.New()}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	rt.encoder = yaw.NewEncoder(cfg.Yaw.TicksPerRev)

	var conv systick.Converter
	var act flight.Actuator
	if cfg.Sim.Enable {
		rt.rig = sim.NewRig(sim.Config{
			GroundCode:      cfg.Sim.GroundCode,
			FullScaleOffset: cfg.Altitude.FullScaleOffset,
			Noise:           cfg.Sim.Noise,
			Seed:            cfg.Sim.Seed,
			StartTicks:      cfg.Sim.StartTicks,
			TicksPerRev:     cfg.Yaw.TicksPerRev,
		})
		rt.encoder.Seed(rt.rig.Levels())
		rt.rig.Attach(rt.encoder, rt.encoder.Reference)
		conv, act = rt.rig, rt.rig
	} else {
		conv, err = rt.openADC()
		if err != nil {
			return nil, err
		}
		if err := rt.watchInputs(); err != nil {
			return nil, err
		}
		pa, err := pwm.OpenActuator(cfg.Actuator.Chip, cfg.Actuator.MainChannel, cfg.Actuator.TailChannel, cfg.Actuator.FrequencyHz)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pa)
		act = pa
		log.Printf("pwm enabled chip=%s main=%d tail=%d freq=%dHz", cfg.Actuator.Chip, cfg.Actuator.MainChannel, cfg.Actuator.TailChannel, cfg.Actuator.FrequencyHz)
	}

	buf := altitude.NewBuffer(cfg.Altitude.BufferSize)
	est := altitude.NewEstimator(buf, altitude.Config{
		CalibrationCycles: cfg.Altitude.CalibrationCycles,
		FullScaleOffset:   int32(cfg.Altitude.FullScaleOffset),
	})
	rt.timer = systick.New(systick.Config{RateHz: cfg.Loop.SampleRateHz, SlowRateHz: cfg.Loop.SlowRateHz}, conv, buf)

	sink, err := rt.openSinks()
	if err != nil {
		return nil, err
	}

	rt.ctrl, err = flight.New(flightConfig(cfg), flight.Deps{
		Altitude:  est,
		Yaw:       rt.encoder,
		Inputs:    rt.panel,
		Actuator:  act,
		SlowTick:  rt.timer,
		Telemetry: sink,
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func flightConfig(cfg config.Config) flight.Config {
	return flight.Config{
		DT:         cfg.Loop.DT,
		Precedence: flight.DutyPrecedence(cfg.Flight.DutyPrecedence),
		Machine: flight.MachineConfig{
			OrientMainDuty:      *cfg.Flight.OrientMainDuty,
			OrientTailDuty:      *cfg.Flight.OrientTailDuty,
			AltitudeStep:        int32(cfg.Flight.AltitudeStep),
			AltitudeMin:         0,
			AltitudeMax:         100,
			YawStep:             int32(cfg.Flight.YawStep),
			LandingYawTolerance: int32(cfg.Flight.LandingYawTolerance),
		},
		AltitudePID: pidConfig(cfg.PID, cfg.PID.Altitude),
		YawPID:      pidConfig(cfg.PID, cfg.PID.Yaw),
	}
}

func pidConfig(p config.PIDConfig, g *config.GainsConfig) pid.Config {
	out := pid.Config{OutMin: p.OutputMin, OutMax: p.OutputMax}
	if g != nil {
		out.Gains = pid.Gains{Kp: g.Kp, Ki: g.Ki, Kd: g.Kd}
	}
	return out
}

func (rt *rigRuntime) openADC() (systick.Converter, error) {
	c := rt.cfg.Altitude.ADC
	path := fmt.Sprintf("/dev/i2c-%d", c.I2CBus)
	bus, err := i2c.Open(path)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, bus)
	conv, err := adc.NewADS1115(bus.Dev(c.Addr), c.Channel)
	if err != nil {
		return nil, err
	}
	log.Printf("adc enabled bus=%s addr=0x%02x channel=%d", path, c.Addr, c.Channel)
	return conv, nil
}

func (rt *rigRuntime) watchInputs() error {
	y := rt.cfg.Yaw
	w, err := gpio.WatchQuadrature(y.PinA, y.PinB, rt.encoder)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, w)

	w, err = gpio.WatchFalling(y.PinRef, 0, rt.encoder.Reference)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, w)

	in := rt.cfg.Inputs
	w, err = gpio.WatchPanel(gpio.PanelPins{
		Up:        in.Up,
		Down:      in.Down,
		Left:      in.Left,
		Right:     in.Right,
		Switch:    in.Switch,
		ActiveLow: in.ActiveLow,
		Debounce:  in.Debounce,
	}, rt.panel)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, w)

	if in.Reset > 0 {
		w, err = gpio.WatchFalling(in.Reset, in.Debounce, restart)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, w)
		log.Printf("reset enabled pin=GPIO%d", in.Reset)
	}
	return nil
}

func (rt *rigRuntime) openSinks() (telemetry.Sink, error) {
	t := rt.cfg.Telemetry
	var sinks telemetry.Multi
	if t.Log {
		sinks = append(sinks, telemetry.LogSink{})
	}
	if t.Serial.Enable {
		s, err := telemetry.OpenSerialSink(t.Serial.Device, t.Serial.Baud)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, s)
		sinks = append(sinks, s)
		log.Printf("serial telemetry enabled device=%s baud=%d", t.Serial.Device, t.Serial.Baud)
	}
	if t.Record.Enable {
		r, err := telemetry.CreateRecorder(t.Record.Path)
		if err != nil {
			return nil, err
		}
		rt.recorder = r
		rt.closers = append(rt.closers, r)
		sinks = append(sinks, r)
		log.Printf("flight log recording path=%s session=%s", t.Record.Path, r.Session())
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	return sinks, nil
}

// run blocks until ctx is done and every goroutine it started has returned.
// Outputs are disabled before it returns.
func (rt *rigRuntime) run(ctx context.Context) {
	var wg sync.WaitGroup
	start := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	start(rt.timer.Run)
	if rt.rig != nil {
		start(func(ctx context.Context) { rt.rig.Run(ctx, simStep, rt.cfg.Sim.Speed) })
		if rt.keys != nil {
			// Not joined: a blocking read on stdin cannot be interrupted.
			go func() {
				if err := panel.ReadKeys(ctx, rt.keys, rt.panel); err != nil {
					log.Printf("key input stopped: %v", err)
				}
			}()
		}
	}
	start(rt.ctrl.Run)
	wg.Wait()
}

func (rt *rigRuntime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i].Close())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
