package telemetry

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// Record is the flat status published at the slow-tick rate.
type Record struct {
	MainDuty        int    `json:"main_duty"`
	TailDuty        int    `json:"tail_duty"`
	Altitude        int32  `json:"alt"`
	DesiredAltitude int32  `json:"alt_desired"`
	Yaw             int32  `json:"yaw"`
	DesiredYaw      int32  `json:"yaw_desired"`
	Mode            string `json:"mode"`
}

// Sink receives telemetry records. Publish is called from the control loop
// and should not block for long.
type Sink interface {
	Publish(rec Record) error
}

// Format renders a record as the serial status block. Lines end in "\n\r" to
// match the terminal setup used with the rig.
func Format(rec Record) string {
	var b strings.Builder
	b.WriteString("******\n\r")
	fmt.Fprintf(&b, "Main: %d, Tail: %d\n\r", rec.MainDuty, rec.TailDuty)
	fmt.Fprintf(&b, "Alt: %d [%d]\n\r", rec.Altitude, rec.DesiredAltitude)
	fmt.Fprintf(&b, "Yaw: %d [%d]\n\r", rec.Yaw, rec.DesiredYaw)
	fmt.Fprintf(&b, "Mode: %s\n\r", rec.Mode)
	return b.String()
}

// Multi fans a record out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(rec Record) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Publish(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes a one-line summary per record through the standard logger.
type LogSink struct {
	Logger *log.Logger
}

func (s LogSink) Publish(rec Record) error {
	line := fmt.Sprintf("telemetry mode=%s alt=%d/%d yaw=%d/%d main=%d tail=%d",
		rec.Mode, rec.Altitude, rec.DesiredAltitude, rec.Yaw, rec.DesiredYaw, rec.MainDuty, rec.TailDuty)
	if s.Logger != nil {
		s.Logger.Print(line)
		return nil
	}
	log.Print(line)
	return nil
}
