package pwm

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func fakeChip(t *testing.T, npwm int, exported ...int) string {
	t.Helper()
	base := t.TempDir()
	chip := filepath.Join(base, "pwmchip0")
	if err := os.MkdirAll(chip, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	write(t, filepath.Join(chip, "npwm"), strconv.Itoa(npwm)+"\n")
	write(t, filepath.Join(chip, "export"), "")
	for _, ch := range exported {
		dir := filepath.Join(chip, "pwm"+strconv.Itoa(ch))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		for _, name := range []string{"period", "duty_cycle", "enable"} {
			write(t, filepath.Join(dir, name), "0")
		}
	}

	old, oldWrite := sysfsBase, writeAttr
	sysfsBase = base
	writeAttr = replaceAttr
	t.Cleanup(func() {
		sysfsBase = old
		writeAttr = oldWrite
	})
	return chip
}

// replaceAttr models a sysfs attribute store: each write replaces the value.
// Like the kernel, it never creates a missing attribute.
func replaceAttr(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(value)
	return errors.Join(werr, f.Close())
}

func write(t *testing.T, path, s string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return strings.TrimSpace(string(b))
}

func TestOpenChannel_SetsPeriodAndZeroDuty(t *testing.T) {
	chip := fakeChip(t, 2, 0)
	write(t, filepath.Join(chip, "pwm0", "duty_cycle"), "123")

	c, err := OpenChannel("pwmchip0", 0, 200)
	if err != nil {
		t.Fatalf("OpenChannel: %v", err)
	}
	if got := read(t, filepath.Join(chip, "pwm0", "period")); got != "5000000" {
		t.Fatalf("period=%s want 5000000", got)
	}
	if got := read(t, filepath.Join(chip, "pwm0", "duty_cycle")); got != "0" {
		t.Fatalf("duty_cycle=%s want 0", got)
	}
	if c.Enabled() {
		t.Fatalf("channel should start disabled")
	}
}

func TestChannel_DutyAndEnable(t *testing.T) {
	chip := fakeChip(t, 2, 1)
	c, err := OpenChannel("pwmchip0", 1, 200)
	if err != nil {
		t.Fatalf("OpenChannel: %v", err)
	}

	if err := c.SetDutyPercent(50); err != nil {
		t.Fatalf("SetDutyPercent: %v", err)
	}
	if got := read(t, filepath.Join(chip, "pwm1", "duty_cycle")); got != "2500000" {
		t.Fatalf("duty_cycle=%s want 2500000", got)
	}
	if err := c.SetDutyPercent(150); err != nil {
		t.Fatalf("SetDutyPercent: %v", err)
	}
	if got := read(t, filepath.Join(chip, "pwm1", "duty_cycle")); got != "5000000" {
		t.Fatalf("duty_cycle=%s want clamp to period", got)
	}

	if err := c.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if got := read(t, filepath.Join(chip, "pwm1", "enable")); got != "1" {
		t.Fatalf("enable=%s want 1", got)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := read(t, filepath.Join(chip, "pwm1", "enable")); got != "0" {
		t.Fatalf("enable=%s want 0 after close", got)
	}
	if got := read(t, filepath.Join(chip, "pwm1", "duty_cycle")); got != "0" {
		t.Fatalf("duty_cycle=%s want 0 after close", got)
	}
}

func TestOpenChannel_Validation(t *testing.T) {
	fakeChip(t, 1, 0)
	if _, err := OpenChannel("pwmchip0", 1, 200); err == nil {
		t.Fatalf("expected channel range error")
	}
	if _, err := OpenChannel("pwmchip0", 0, 0); err == nil {
		t.Fatalf("expected frequency error")
	}
}

func TestOpenChannel_ExportTimesOut(t *testing.T) {
	chip := fakeChip(t, 2)
	old := exportWait
	exportWait = 20 * time.Millisecond
	t.Cleanup(func() { exportWait = old })

	_, err := OpenChannel("pwmchip0", 0, 200)
	if err == nil || !strings.Contains(err.Error(), "not created after export") {
		t.Fatalf("err=%v want export timeout", err)
	}
	if got := read(t, filepath.Join(chip, "export")); got != "0" {
		t.Fatalf("export=%q want 0", got)
	}
}

func TestChannel_MissingNodeFailsFast(t *testing.T) {
	chip := fakeChip(t, 1, 0)
	c, err := OpenChannel("pwmchip0", 0, 200)
	if err != nil {
		t.Fatalf("OpenChannel: %v", err)
	}
	if err := os.RemoveAll(filepath.Join(chip, "pwm0")); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}

	start := time.Now()
	err = c.SetDutyPercent(50)
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("SetDutyPercent took %s, want an immediate failure", elapsed)
	}
	if err == nil || !strings.Contains(err.Error(), "pwm: write ") || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v want wrapped not-exist", err)
	}
	if err := c.SetEnabled(true); err == nil {
		t.Fatalf("SetEnabled on missing node: expected error")
	}
	if c.Enabled() {
		t.Fatalf("failed enable must not mark the channel enabled")
	}
}

func TestWriteOnce_DoesNotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duty_cycle")
	if err := writeOnce(path, "1"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err=%v want not-exist", err)
	}
}

type fakeOutput struct {
	duty    int
	enabled bool
	closed  bool
}

func (f *fakeOutput) SetDutyPercent(p int) error { f.duty = p; return nil }
func (f *fakeOutput) SetEnabled(on bool) error   { f.enabled = on; return nil }
func (f *fakeOutput) Close() error               { f.closed = true; return nil }

func TestActuator_RoutesToChannels(t *testing.T) {
	m, tl := &fakeOutput{}, &fakeOutput{}
	a := NewActuator(m, tl)
	_ = a.SetMainDuty(40)
	_ = a.SetTailDuty(25)
	_ = a.EnableMain(true)
	if m.duty != 40 || tl.duty != 25 || !m.enabled || tl.enabled {
		t.Fatalf("main=%+v tail=%+v", m, tl)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !m.closed || !tl.closed {
		t.Fatalf("expected both outputs closed")
	}
}
