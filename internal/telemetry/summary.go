package telemetry

import "time"

type Summary struct {
	Segments    int
	Records     int
	MaxDuration time.Duration
	PeakAlt     int32
	// ModeTime attributes the gap between consecutive records to the mode of
	// the earlier one.
	ModeTime map[string]time.Duration
}

func Summarize(entries []Entry) Summary {
	s := Summary{ModeTime: map[string]time.Duration{}}

	var prev *Entry
	hasRecords := false
	for i := range entries {
		e := &entries[i]
		if e.Record == nil {
			s.Segments++
			prev = nil
			continue
		}
		if !hasRecords || e.Record.Altitude > s.PeakAlt {
			s.PeakAlt = e.Record.Altitude
		}
		hasRecords = true
		s.Records++
		if e.At > s.MaxDuration {
			s.MaxDuration = e.At
		}
		if prev != nil && e.At > prev.At {
			s.ModeTime[prev.Record.Mode] += e.At - prev.At
		}
		prev = e
	}
	if s.Segments == 0 && hasRecords {
		s.Segments = 1
	}
	return s
}
