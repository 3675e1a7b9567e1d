package adc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegs struct {
	writes map[byte]uint16
	conv   uint16
	err    error
}

func (f *fakeRegs) WriteReg16(reg byte, v uint16) error {
	if f.writes == nil {
		f.writes = map[byte]uint16{}
	}
	f.writes[reg] = v
	return f.err
}

func (f *fakeRegs) ReadReg16(reg byte) (uint16, error) {
	if reg != regConversion {
		return 0, errors.New("unexpected register")
	}
	return f.conv, f.err
}

func TestConfigWord(t *testing.T) {
	assert.Equal(t, uint16(0xC2E3), configWord(0))
	assert.Equal(t, uint16(0xF2E3), configWord(3))
}

func TestNewADS1115_WritesConfig(t *testing.T) {
	regs := &fakeRegs{}
	_, err := NewADS1115(regs, 1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xD2E3), regs.writes[regConfig])
}

func TestNewADS1115_Validation(t *testing.T) {
	_, err := NewADS1115(nil, 0)
	assert.Error(t, err)
	_, err = NewADS1115(&fakeRegs{}, 4)
	assert.Error(t, err)
	_, err = NewADS1115(&fakeRegs{err: errors.New("nack")}, 0)
	assert.ErrorContains(t, err, "configure")
}

func TestConvert_ScalesTo12Bit(t *testing.T) {
	cases := []struct {
		raw  uint16
		want uint16
	}{
		{0x0000, 0},
		{0x7FFF, 4095},
		{0x4000, 2048},
		{0x0008, 1},
		{0xFFF0, 0}, // slightly negative reads clamp to 0
	}
	for _, tc := range cases {
		regs := &fakeRegs{conv: tc.raw}
		a, err := NewADS1115(regs, 0)
		require.NoError(t, err)
		got, err := a.Convert()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "raw=0x%04X", tc.raw)
	}
}

func TestConvert_PropagatesError(t *testing.T) {
	regs := &fakeRegs{}
	a, err := NewADS1115(regs, 0)
	require.NoError(t, err)
	regs.err = errors.New("bus gone")
	_, err = a.Convert()
	assert.ErrorContains(t, err, "bus gone")
}
