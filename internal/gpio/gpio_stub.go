//go:build !linux

package gpio

import (
	"fmt"
	"time"

	"heli-rig/internal/panel"
)

type Watch struct{}

func (w *Watch) Close() error { return nil }

func WatchQuadrature(pinA, pinB int, sink QuadratureSink) (*Watch, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}

func WatchFalling(pin int, debounce time.Duration, fn func()) (*Watch, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}

func WatchPanel(pins PanelPins, p *panel.Panel) (*Watch, error) {
	return nil, fmt.Errorf("gpio: unsupported on this platform")
}
