package i2c

import (
	"errors"
	"fmt"
)

// Transferer performs one combined write-then-read transaction (repeated
// start) with the device at addr. Either buffer may be empty.
type Transferer interface {
	Tx(addr uint16, w, r []byte) error
}

// Dev represents a device at a 7-bit I2C address.
type Dev struct {
	t    Transferer
	addr uint16
}

func NewDev(t Transferer, addr uint16) *Dev {
	return &Dev{t: t, addr: addr}
}

func (d *Dev) Addr() uint16 { return d.addr }

func (d *Dev) WriteRead(w, r []byte) error {
	if d == nil || d.t == nil {
		return errors.New("i2c device is nil")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return fmt.Errorf("invalid i2c addr 0x%X", d.addr)
	}
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	return d.t.Tx(d.addr, w, r)
}

// WriteReg16 writes a big-endian 16-bit register.
func (d *Dev) WriteReg16(reg byte, v uint16) error {
	return d.WriteRead([]byte{reg, byte(v >> 8), byte(v)}, nil)
}

// ReadReg16 reads a big-endian 16-bit register.
func (d *Dev) ReadReg16(reg byte) (uint16, error) {
	var b [2]byte
	if err := d.WriteRead([]byte{reg}, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}
