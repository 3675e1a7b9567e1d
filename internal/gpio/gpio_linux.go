//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"heli-rig/internal/panel"
)

// Watch owns requested lines and their chips.
type Watch struct {
	lines []io.Closer
	chips []*gpiocdev.Chip
}

func (w *Watch) Close() error {
	if w == nil {
		return nil
	}
	var errs []error
	for _, l := range w.lines {
		errs = append(errs, l.Close())
	}
	for _, c := range w.chips {
		errs = append(errs, c.Close())
	}
	w.lines, w.chips = nil, nil
	return errors.Join(errs...)
}

func chipCandidates() []string {
	// Pi 5 kernels expose the header on gpiochip4 on some releases.
	out := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		p := filepath.Join("/dev", name)
		if strings.HasPrefix(name, "gpiochip") && p != out[0] && p != out[1] {
			out = append(out, p)
		}
	}
	return out
}

func lineName(pin int) string { return fmt.Sprintf("GPIO%d", pin) }

// findLines opens the chip carrying every named BCM pin and returns their
// offsets in order.
func findLines(pins ...int) (*gpiocdev.Chip, []int, error) {
	for _, path := range chipCandidates() {
		chip, err := gpiocdev.NewChip(path, gpiocdev.WithConsumer(consumer))
		if err != nil {
			continue
		}
		offsets := make([]int, 0, len(pins))
		for _, pin := range pins {
			off, err := chip.FindLine(lineName(pin))
			if err != nil {
				break
			}
			offsets = append(offsets, off)
		}
		if len(offsets) == len(pins) {
			return chip, offsets, nil
		}
		_ = chip.Close()
	}
	return nil, nil, fmt.Errorf("gpio: lines %v not found on a single chip", pins)
}

func rising(evt gpiocdev.LineEvent) bool {
	return evt.Type == gpiocdev.LineEventRisingEdge
}

// WatchQuadrature requests both encoder channels in one request so their
// edges are delivered by a single handler goroutine, in order.
func WatchQuadrature(pinA, pinB int, sink QuadratureSink) (*Watch, error) {
	if pinA <= 0 || pinB <= 0 || pinA == pinB {
		return nil, fmt.Errorf("gpio: invalid quadrature pins %d/%d", pinA, pinB)
	}
	chip, offs, err := findLines(pinA, pinB)
	if err != nil {
		return nil, err
	}
	q := &quadrature{offA: offs[0], offB: offs[1], sink: sink}
	lines, err := chip.RequestLines(offs,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			q.event(evt.Offset, rising(evt))
		}),
	)
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("gpio: request quadrature lines: %w", err)
	}
	vals := make([]int, 2)
	if err := lines.Values(vals); err != nil {
		_ = lines.Close()
		_ = chip.Close()
		return nil, fmt.Errorf("gpio: read quadrature levels: %w", err)
	}
	q.seed(vals[0] != 0, vals[1] != 0)
	log.Printf("yaw encoder watching GPIO%d/GPIO%d", pinA, pinB)
	return &Watch{lines: []io.Closer{lines}, chips: []*gpiocdev.Chip{chip}}, nil
}

// WatchFalling calls fn on every debounced falling edge of a pulled-up pin.
func WatchFalling(pin int, debounce time.Duration, fn func()) (*Watch, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("gpio: invalid pin %d", pin)
	}
	chip, offs, err := findLines(pin)
	if err != nil {
		return nil, err
	}
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { fn() }),
	}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}
	line, err := chip.RequestLine(offs[0], opts...)
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("gpio: request %s: %w", lineName(pin), err)
	}
	return &Watch{lines: []io.Closer{line}, chips: []*gpiocdev.Chip{chip}}, nil
}

// WatchPanel feeds button pushes and switch changes into p.
func WatchPanel(pins PanelPins, p *panel.Panel) (*Watch, error) {
	w := &Watch{}
	bias := gpiocdev.WithPullDown
	if pins.ActiveLow {
		bias = gpiocdev.WithPullUp
	}
	request := func(pin int, handler func(rising bool)) (*gpiocdev.Line, error) {
		chip, offs, err := findLines(pin)
		if err != nil {
			return nil, err
		}
		w.chips = append(w.chips, chip)
		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsInput,
			bias,
			gpiocdev.WithBothEdges,
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) { handler(rising(evt)) }),
		}
		if pins.Debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(pins.Debounce))
		}
		line, err := chip.RequestLine(offs[0], opts...)
		if err != nil {
			return nil, fmt.Errorf("gpio: request %s: %w", lineName(pin), err)
		}
		w.lines = append(w.lines, line)
		return line, nil
	}

	buttons := []struct {
		pin int
		b   panel.Button
	}{
		{pins.Up, panel.Up},
		{pins.Down, panel.Down},
		{pins.Left, panel.Left},
		{pins.Right, panel.Right},
	}
	for _, btn := range buttons {
		if _, err := request(btn.pin, pressFunc(p, btn.b, pins.ActiveLow)); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	sw, err := request(pins.Switch, func(r bool) {
		p.SetSwitch(r != pins.ActiveLow)
	})
	if err != nil {
		_ = w.Close()
		return nil, err
	}
	raw, err := sw.Value()
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gpio: read switch: %w", err)
	}
	p.SetSwitch(switchLevel(raw, pins.ActiveLow))
	log.Printf("panel watching up=GPIO%d down=GPIO%d left=GPIO%d right=GPIO%d switch=GPIO%d active_low=%t",
		pins.Up, pins.Down, pins.Left, pins.Right, pins.Switch, pins.ActiveLow)
	return w, nil
}
