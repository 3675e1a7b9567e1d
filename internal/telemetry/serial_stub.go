//go:build !linux

package telemetry

import (
	"fmt"
	"os"
)

func openSerial(path string, baud int) (*os.File, error) {
	return nil, fmt.Errorf("telemetry serial not supported on this platform")
}
