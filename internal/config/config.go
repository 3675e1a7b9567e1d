package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Loop      LoopConfig      `yaml:"loop"`
	Altitude  AltitudeConfig  `yaml:"altitude"`
	Yaw       YawConfig       `yaml:"yaw"`
	PID       PIDConfig       `yaml:"pid"`
	Flight    FlightConfig    `yaml:"flight"`
	Inputs    InputsConfig    `yaml:"inputs"`
	Actuator  ActuatorConfig  `yaml:"actuator"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Sim       SimConfig       `yaml:"sim"`
}

type LoopConfig struct {
	// DT is the fixed control period; it is also the time step the PIDs use.
	DT           time.Duration `yaml:"dt"`
	SampleRateHz int           `yaml:"sample_rate_hz"`
	SlowRateHz   int           `yaml:"slow_rate_hz"`
}

type AltitudeConfig struct {
	BufferSize        int       `yaml:"buffer_size"`
	CalibrationCycles int       `yaml:"calibration_cycles"`
	FullScaleOffset   int       `yaml:"full_scale_offset"`
	ADC               ADCConfig `yaml:"adc"`
}

type ADCConfig struct {
	I2CBus  int    `yaml:"i2c_bus"`
	Addr    uint16 `yaml:"addr"`
	Channel int    `yaml:"channel"`
}

type YawConfig struct {
	TicksPerRev int `yaml:"ticks_per_rev"`
	// BCM GPIO numbers.
	PinA   int `yaml:"pin_a"`
	PinB   int `yaml:"pin_b"`
	PinRef int `yaml:"pin_ref"`
}

type GainsConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

type PIDConfig struct {
	OutputMin float64      `yaml:"output_min"`
	OutputMax float64      `yaml:"output_max"`
	Altitude  *GainsConfig `yaml:"altitude"`
	Yaw       *GainsConfig `yaml:"yaw"`
}

type FlightConfig struct {
	// Orienting duties are pointers so an explicit 0 is kept as written.
	OrientMainDuty      *int `yaml:"orient_main_duty"`
	OrientTailDuty      *int `yaml:"orient_tail_duty"`
	AltitudeStep        int  `yaml:"altitude_step"`
	YawStep             int  `yaml:"yaw_step"`
	LandingYawTolerance int  `yaml:"landing_yaw_tolerance"`
	// DutyPrecedence is "mode" or "pid".
	DutyPrecedence string `yaml:"duty_precedence"`
}

type InputsConfig struct {
	Up        int           `yaml:"up"`
	Down      int           `yaml:"down"`
	Left      int           `yaml:"left"`
	Right     int           `yaml:"right"`
	Switch    int           `yaml:"switch"`
	Reset     int           `yaml:"reset"`
	ActiveLow bool          `yaml:"active_low"`
	Debounce  time.Duration `yaml:"debounce"`
}

type ActuatorConfig struct {
	Chip        string `yaml:"chip"`
	MainChannel int    `yaml:"main_channel"`
	TailChannel int    `yaml:"tail_channel"`
	FrequencyHz int    `yaml:"frequency_hz"`
}

type TelemetryConfig struct {
	Log    bool         `yaml:"log"`
	Serial SerialConfig `yaml:"serial"`
	Record RecordConfig `yaml:"record"`
}

type SerialConfig struct {
	Enable bool   `yaml:"enable"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type SimConfig struct {
	// Enable replaces the ADC, the GPIO inputs and the PWM actuator with the
	// simulated rig.
	Enable bool  `yaml:"enable"`
	Seed   int64 `yaml:"seed"`
	// GroundCode is the raw ADC reading with the helicopter on the ground.
	GroundCode int     `yaml:"ground_code"`
	Noise      float64 `yaml:"noise"`
	// StartTicks is the yaw offset from home at power-on.
	StartTicks int `yaml:"start_ticks"`
	// Speed scales simulated time against wall time.
	Speed float64 `yaml:"speed"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills zero values with the rig defaults and rejects
// inconsistent settings.
func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Loop.DT == 0 {
		cfg.Loop.DT = 5 * time.Millisecond
	}
	if cfg.Loop.DT < 0 {
		return fmt.Errorf("loop.dt must be > 0")
	}
	if cfg.Loop.SampleRateHz == 0 {
		cfg.Loop.SampleRateHz = 100
	}
	if cfg.Loop.SlowRateHz == 0 {
		cfg.Loop.SlowRateHz = 4
	}
	if cfg.Loop.SampleRateHz < 0 || cfg.Loop.SlowRateHz < 0 {
		return fmt.Errorf("loop rates must be > 0")
	}
	if cfg.Loop.SlowRateHz > cfg.Loop.SampleRateHz {
		return fmt.Errorf("loop.slow_rate_hz must not exceed loop.sample_rate_hz")
	}

	if cfg.Altitude.BufferSize == 0 {
		cfg.Altitude.BufferSize = 10
	}
	if cfg.Altitude.BufferSize < 0 {
		return fmt.Errorf("altitude.buffer_size must be > 0")
	}
	if cfg.Altitude.CalibrationCycles == 0 {
		cfg.Altitude.CalibrationCycles = 20
	}
	if cfg.Altitude.CalibrationCycles < 0 {
		return fmt.Errorf("altitude.calibration_cycles must be > 0")
	}
	if cfg.Altitude.FullScaleOffset == 0 {
		cfg.Altitude.FullScaleOffset = 993
	}
	if cfg.Altitude.ADC.I2CBus == 0 {
		cfg.Altitude.ADC.I2CBus = 1
	}
	if cfg.Altitude.ADC.Addr == 0 {
		cfg.Altitude.ADC.Addr = 0x48
	}
	if cfg.Altitude.ADC.Channel < 0 || cfg.Altitude.ADC.Channel > 3 {
		return fmt.Errorf("altitude.adc.channel must be 0..3")
	}

	if cfg.Yaw.TicksPerRev == 0 {
		cfg.Yaw.TicksPerRev = 448
	}
	if cfg.Yaw.TicksPerRev < 0 {
		return fmt.Errorf("yaw.ticks_per_rev must be > 0")
	}
	if cfg.Yaw.PinA == 0 {
		cfg.Yaw.PinA = 17
	}
	if cfg.Yaw.PinB == 0 {
		cfg.Yaw.PinB = 27
	}
	if cfg.Yaw.PinRef == 0 {
		cfg.Yaw.PinRef = 22
	}

	if cfg.PID.OutputMin == 0 && cfg.PID.OutputMax == 0 {
		cfg.PID.OutputMin = 2
		cfg.PID.OutputMax = 98
	}
	if cfg.PID.OutputMin < 0 || cfg.PID.OutputMax > 100 || cfg.PID.OutputMin >= cfg.PID.OutputMax {
		return fmt.Errorf("pid output range must satisfy 0 <= output_min < output_max <= 100")
	}
	// Gains are pointers so an explicit all-zero block is kept as written.
	if cfg.PID.Altitude == nil {
		cfg.PID.Altitude = &GainsConfig{Kp: 1.5, Ki: 0.0015, Kd: 0}
	}
	if cfg.PID.Yaw == nil {
		cfg.PID.Yaw = &GainsConfig{Kp: 0.3, Ki: 0.0015, Kd: 0}
	}

	if cfg.Flight.OrientMainDuty == nil {
		cfg.Flight.OrientMainDuty = intPtr(5)
	}
	if cfg.Flight.OrientTailDuty == nil {
		cfg.Flight.OrientTailDuty = intPtr(10)
	}
	if !dutyOK(*cfg.Flight.OrientMainDuty) || !dutyOK(*cfg.Flight.OrientTailDuty) {
		return fmt.Errorf("flight orient duties must be 0..100")
	}
	if cfg.Flight.AltitudeStep == 0 {
		cfg.Flight.AltitudeStep = 10
	}
	if cfg.Flight.YawStep == 0 {
		cfg.Flight.YawStep = 15
	}
	if cfg.Flight.AltitudeStep < 0 || cfg.Flight.YawStep < 0 {
		return fmt.Errorf("flight setpoint steps must be > 0")
	}
	if cfg.Flight.LandingYawTolerance == 0 {
		cfg.Flight.LandingYawTolerance = 5
	}
	if cfg.Flight.LandingYawTolerance < 0 {
		return fmt.Errorf("flight.landing_yaw_tolerance must be >= 0")
	}
	cfg.Flight.DutyPrecedence = strings.ToLower(strings.TrimSpace(cfg.Flight.DutyPrecedence))
	switch cfg.Flight.DutyPrecedence {
	case "":
		cfg.Flight.DutyPrecedence = "mode"
	case "mode", "pid":
	default:
		return fmt.Errorf("flight.duty_precedence must be 'mode' or 'pid'")
	}

	if cfg.Inputs.Up == 0 {
		cfg.Inputs.Up = 5
	}
	if cfg.Inputs.Down == 0 {
		cfg.Inputs.Down = 6
	}
	if cfg.Inputs.Left == 0 {
		cfg.Inputs.Left = 13
	}
	if cfg.Inputs.Right == 0 {
		cfg.Inputs.Right = 19
	}
	if cfg.Inputs.Switch == 0 {
		cfg.Inputs.Switch = 26
	}
	if cfg.Inputs.Debounce == 0 {
		cfg.Inputs.Debounce = 10 * time.Millisecond
	}
	if cfg.Inputs.Debounce < 0 {
		return fmt.Errorf("inputs.debounce must be >= 0")
	}

	if cfg.Actuator.Chip == "" {
		cfg.Actuator.Chip = "pwmchip0"
	}
	if cfg.Actuator.MainChannel == 0 && cfg.Actuator.TailChannel == 0 {
		cfg.Actuator.TailChannel = 1
	}
	if cfg.Actuator.MainChannel == cfg.Actuator.TailChannel {
		return fmt.Errorf("actuator.main_channel and actuator.tail_channel must differ")
	}
	if cfg.Actuator.FrequencyHz == 0 {
		cfg.Actuator.FrequencyHz = 200
	}
	if cfg.Actuator.FrequencyHz < 0 {
		return fmt.Errorf("actuator.frequency_hz must be > 0")
	}

	if cfg.Telemetry.Serial.Enable && cfg.Telemetry.Serial.Device == "" {
		return fmt.Errorf("telemetry.serial.device is required when telemetry.serial.enable is true")
	}
	if cfg.Telemetry.Serial.Baud == 0 {
		cfg.Telemetry.Serial.Baud = 9600
	}
	if cfg.Telemetry.Record.Enable && cfg.Telemetry.Record.Path == "" {
		return fmt.Errorf("telemetry.record.path is required when telemetry.record.enable is true")
	}

	// Simulator defaults (safe even if disabled).
	if cfg.Sim.GroundCode == 0 {
		cfg.Sim.GroundCode = 2600
	}
	if cfg.Sim.GroundCode < cfg.Altitude.FullScaleOffset || cfg.Sim.GroundCode > 4095 {
		return fmt.Errorf("sim.ground_code must be within full_scale_offset..4095")
	}
	if cfg.Sim.Noise == 0 {
		cfg.Sim.Noise = 8
	}
	if cfg.Sim.StartTicks == 0 {
		cfg.Sim.StartTicks = 150
	}
	if cfg.Sim.Speed == 0 {
		cfg.Sim.Speed = 1
	}
	if cfg.Sim.Speed < 0 {
		return fmt.Errorf("sim.speed must be > 0")
	}

	return nil
}

func dutyOK(p int) bool { return p >= 0 && p <= 100 }

func intPtr(v int) *int { return &v }
