package adc

import (
	"fmt"
)

// Register map.
const (
	regConversion = 0x00
	regConfig     = 0x01
)

const DefaultAddress = 0x48

// RegisterDev is the subset of an I2C device the driver needs.
type RegisterDev interface {
	WriteReg16(reg byte, v uint16) error
	ReadReg16(reg byte) (uint16, error)
}

// ADS1115 reads a single-ended channel in continuous-conversion mode so each
// Convert is one register read and never waits on the converter.
type ADS1115 struct {
	dev     RegisterDev
	channel int
}

// configWord builds the config register value for a single-ended channel:
// MUX=AINx/GND, PGA=±4.096V, continuous mode, 860 SPS, comparator off.
func configWord(channel int) uint16 {
	const (
		os     = 1 << 15
		pga4v  = 1 << 9
		dr860  = 7 << 5
		compQ0 = 3
	)
	mux := uint16(4+channel) << 12
	return os | mux | pga4v | dr860 | compQ0
}

func NewADS1115(dev RegisterDev, channel int) (*ADS1115, error) {
	if dev == nil {
		return nil, fmt.Errorf("adc: ads1115 device is nil")
	}
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("adc: ads1115 channel %d out of range", channel)
	}
	if err := dev.WriteReg16(regConfig, configWord(channel)); err != nil {
		return nil, fmt.Errorf("adc: ads1115 configure: %w", err)
	}
	return &ADS1115{dev: dev, channel: channel}, nil
}

// Convert returns the latest conversion scaled to a 12-bit code (0..4095
// spans 0..4.096V), matching the resolution the altitude calibration is
// expressed in.
func (a *ADS1115) Convert() (uint16, error) {
	raw, err := a.dev.ReadReg16(regConversion)
	if err != nil {
		return 0, fmt.Errorf("adc: ads1115 read: %w", err)
	}
	return scale12(int16(raw)), nil
}

func scale12(v int16) uint16 {
	if v < 0 {
		return 0
	}
	return uint16(v) >> 3
}
