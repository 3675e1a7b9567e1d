package i2c

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type fakeTx struct {
	addr  uint16
	w     []byte
	reply []byte
	err   error
	calls int
}

func (f *fakeTx) Tx(addr uint16, w, r []byte) error {
	f.calls++
	f.addr = addr
	f.w = append([]byte(nil), w...)
	copy(r, f.reply)
	return f.err
}

func TestDev_InvalidAddr(t *testing.T) {
	for _, addr := range []uint16{0, 0x80} {
		d := NewDev(&fakeTx{}, addr)
		err := d.WriteReg16(0x01, 0)
		if err == nil || !strings.Contains(err.Error(), "invalid i2c addr") {
			t.Fatalf("addr=0x%X err=%v want invalid i2c addr", addr, err)
		}
	}
}

func TestDev_NilIsError(t *testing.T) {
	var d *Dev
	if err := d.WriteRead([]byte{1}, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDev_EmptyIsNoop(t *testing.T) {
	ft := &fakeTx{}
	if err := NewDev(ft, 0x48).WriteRead(nil, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
	if ft.calls != 0 {
		t.Fatalf("calls=%d want 0", ft.calls)
	}
}

func TestDev_WriteReg16BigEndian(t *testing.T) {
	ft := &fakeTx{}
	if err := NewDev(ft, 0x48).WriteReg16(0x01, 0xC383); err != nil {
		t.Fatalf("err=%v", err)
	}
	if ft.addr != 0x48 || !bytes.Equal(ft.w, []byte{0x01, 0xC3, 0x83}) {
		t.Fatalf("addr=0x%X w=%x", ft.addr, ft.w)
	}
}

func TestDev_ReadReg16BigEndian(t *testing.T) {
	ft := &fakeTx{reply: []byte{0x12, 0x34}}
	v, err := NewDev(ft, 0x48).ReadReg16(0x00)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if v != 0x1234 {
		t.Fatalf("v=0x%X want 0x1234", v)
	}
	if !bytes.Equal(ft.w, []byte{0x00}) {
		t.Fatalf("w=%x want 00", ft.w)
	}
}

func TestDev_ReadPropagatesError(t *testing.T) {
	boom := errors.New("nack")
	_, err := NewDev(&fakeTx{err: boom}, 0x48).ReadReg16(0)
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}
}
