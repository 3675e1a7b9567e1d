package main

import (
	"testing"

	"heli-rig/internal/config"
	"heli-rig/internal/flight"
)

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HELI_RIG_CONFIG", "")
	if got := defaultConfigPath(); got != "./heli-rig.yaml" {
		t.Fatalf("path=%q want ./heli-rig.yaml", got)
	}
	t.Setenv("HELI_RIG_CONFIG", "/etc/heli-rig.yaml")
	if got := defaultConfigPath(); got != "/etc/heli-rig.yaml" {
		t.Fatalf("path=%q want /etc/heli-rig.yaml", got)
	}
}

func TestFlightConfig_FromDefaults(t *testing.T) {
	var cfg config.Config
	if err := config.DefaultAndValidate(&cfg); err != nil {
		t.Fatalf("DefaultAndValidate() error: %v", err)
	}
	fc := flightConfig(cfg)
	if fc.Machine != flight.DefaultMachineConfig() {
		t.Fatalf("machine=%+v want %+v", fc.Machine, flight.DefaultMachineConfig())
	}
	if fc.Precedence != flight.PrecedenceMode {
		t.Fatalf("precedence=%q want mode", fc.Precedence)
	}
	if fc.DT != flight.DefaultDT {
		t.Fatalf("dt=%s want %s", fc.DT, flight.DefaultDT)
	}
	if fc.AltitudePID.Kp != 1.5 || fc.AltitudePID.Ki != 0.0015 || fc.AltitudePID.OutMin != 2 || fc.AltitudePID.OutMax != 98 {
		t.Fatalf("altitude pid=%+v", fc.AltitudePID)
	}
	if fc.YawPID.Kp != 0.3 || fc.YawPID.Ki != 0.0015 {
		t.Fatalf("yaw pid=%+v", fc.YawPID)
	}
}

func TestFlightConfig_ZeroOrientDuties(t *testing.T) {
	zero := 0
	cfg := config.Config{Flight: config.FlightConfig{OrientMainDuty: &zero, OrientTailDuty: &zero}}
	if err := config.DefaultAndValidate(&cfg); err != nil {
		t.Fatalf("DefaultAndValidate() error: %v", err)
	}
	fc := flightConfig(cfg)
	if fc.Machine.OrientMainDuty != 0 || fc.Machine.OrientTailDuty != 0 {
		t.Fatalf("orient duties=%d/%d want 0/0", fc.Machine.OrientMainDuty, fc.Machine.OrientTailDuty)
	}
	if fc.Machine.AltitudeStep != 10 {
		t.Fatalf("altitude step=%d want 10", fc.Machine.AltitudeStep)
	}
}
