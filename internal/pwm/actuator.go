package pwm

import (
	"errors"
	"fmt"
)

// Output is one rotor channel.
type Output interface {
	SetDutyPercent(p int) error
	SetEnabled(on bool) error
	Close() error
}

// Actuator pairs the main and tail rotor outputs behind the flight loop's
// duty/enable interface.
type Actuator struct {
	main Output
	tail Output
}

func NewActuator(main, tail Output) *Actuator {
	return &Actuator{main: main, tail: tail}
}

// OpenActuator opens both channels of chip and leaves them disabled.
func OpenActuator(chip string, mainChannel, tailChannel, frequencyHz int) (*Actuator, error) {
	main, err := OpenChannel(chip, mainChannel, frequencyHz)
	if err != nil {
		return nil, fmt.Errorf("pwm: main rotor: %w", err)
	}
	tail, err := OpenChannel(chip, tailChannel, frequencyHz)
	if err != nil {
		_ = main.Close()
		return nil, fmt.Errorf("pwm: tail rotor: %w", err)
	}
	return NewActuator(main, tail), nil
}

func (a *Actuator) SetMainDuty(p int) error  { return a.main.SetDutyPercent(p) }
func (a *Actuator) SetTailDuty(p int) error  { return a.tail.SetDutyPercent(p) }
func (a *Actuator) EnableMain(on bool) error { return a.main.SetEnabled(on) }
func (a *Actuator) EnableTail(on bool) error { return a.tail.SetEnabled(on) }

func (a *Actuator) Close() error {
	return errors.Join(a.main.Close(), a.tail.Close())
}
