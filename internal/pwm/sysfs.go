package pwm

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Channel drives one Linux sysfs PWM channel (/sys/class/pwm/pwmchipN/pwmM).
//
// The output is only driven while enabled; duty and enable are independent so
// a duty can be staged before the output is switched on.
type Channel struct {
	pwmPath  string
	periodNS uint64
	enabled  bool
}

var sysfsBase = "/sys/class/pwm"

// exportWait bounds how long we wait for udev to create the channel nodes.
var exportWait = 500 * time.Millisecond

func OpenChannel(chip string, channel int, frequencyHz int) (*Channel, error) {
	if frequencyHz <= 0 {
		return nil, fmt.Errorf("pwm: invalid frequency %d", frequencyHz)
	}
	chipPath := filepath.Join(sysfsBase, chip)
	n, err := readInt(filepath.Join(chipPath, "npwm"))
	if err != nil {
		return nil, fmt.Errorf("pwm: read %s npwm: %w", chip, err)
	}
	if channel < 0 || channel >= n {
		return nil, fmt.Errorf("pwm: %s has %d channels, want channel %d", chip, n, channel)
	}

	c := &Channel{pwmPath: filepath.Join(chipPath, fmt.Sprintf("pwm%d", channel))}
	if err := ensureExported(chipPath, c.pwmPath, channel); err != nil {
		return nil, err
	}

	// Disable before changing period (common sysfs requirement). udev may
	// still be fixing permissions on the fresh nodes, so these writes retry.
	_ = writeSysfs(c.attr("enable"), "0")
	periodNS := uint64(1_000_000_000 / frequencyHz)
	if err := writeSysfs(c.attr("duty_cycle"), "0"); err != nil {
		return nil, err
	}
	if err := writeSysfs(c.attr("period"), strconv.FormatUint(periodNS, 10)); err != nil {
		return nil, err
	}
	c.periodNS = periodNS
	return c, nil
}

func ensureExported(chipPath, pwmPath string, channel int) error {
	if _, err := os.Stat(pwmPath); err == nil {
		return nil
	}
	if err := writeSysfs(filepath.Join(chipPath, "export"), strconv.Itoa(channel)); err != nil {
		// Someone else may have exported it meanwhile.
		if _, statErr := os.Stat(pwmPath); statErr == nil {
			return nil
		}
		return fmt.Errorf("pwm: export channel %d: %w", channel, err)
	}

	deadline := time.Now().Add(exportWait)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(pwmPath); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(pwmPath); err != nil {
		return fmt.Errorf("pwm: path not created after export: %w", err)
	}
	return nil
}

// SetDutyPercent sets the high time as a percentage of the period, clamped to
// 0..100.
func (c *Channel) SetDutyPercent(p int) error {
	if p < 0 {
		p = 0
	} else if p > 100 {
		p = 100
	}
	duty := uint64(math.Round(float64(c.periodNS) * float64(p) / 100.0))
	if duty > c.periodNS {
		duty = c.periodNS
	}
	return c.writeUint("duty_cycle", duty)
}

func (c *Channel) SetEnabled(on bool) error {
	if on == c.enabled {
		return nil
	}
	if err := c.writeBool("enable", on); err != nil {
		return err
	}
	c.enabled = on
	return nil
}

func (c *Channel) Enabled() bool { return c.enabled }

// Close leaves the channel disabled with zero duty.
func (c *Channel) Close() error {
	err1 := c.writeUint("duty_cycle", 0)
	err2 := c.writeBool("enable", false)
	c.enabled = false
	return errors.Join(err1, err2)
}

func (c *Channel) attr(name string) string { return filepath.Join(c.pwmPath, name) }

// writeUint and writeBool run on the control path: one attempt, no retry.
func (c *Channel) writeUint(name string, v uint64) error {
	return writeNow(c.attr(name), strconv.FormatUint(v, 10))
}

func (c *Channel) writeBool(name string, v bool) error {
	val := "0"
	if v {
		val = "1"
	}
	return writeNow(c.attr(name), val)
}

func writeNow(path, value string) error {
	if err := writeAttr(path, value); err != nil {
		return fmt.Errorf("pwm: write %s: %w", path, err)
	}
	return nil
}

func writeSysfs(path string, value string) error {
	// O_WRONLY without O_TRUNC/O_CREATE: some sysfs attributes reject
	// truncation. Right after export udev may still be fixing permissions, so
	// EACCES/ENOENT are retried briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := writeAttr(path, value)
		if err == nil {
			return nil
		}
		if time.Now().Before(deadline) && isRetryableSysfsErr(err) {
			time.Sleep(25 * time.Millisecond)
			continue
		}
		return fmt.Errorf("pwm: write %s: %w", path, err)
	}
}

// writeAttr is replaced in tests, where attributes are regular files.
var writeAttr = writeOnce

func writeOnce(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(value)
	cerr := f.Close()
	return errors.Join(werr, cerr)
}

func isRetryableSysfsErr(err error) bool {
	return os.IsPermission(err) || os.IsNotExist(err) || errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.ENOENT)
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	return strconv.Atoi(s)
}
