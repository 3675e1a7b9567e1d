package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"heli-rig/internal/telemetry"
)

func printLogSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := telemetry.NewLogReader(f).ReadAll()
	if err != nil {
		return err
	}
	s := telemetry.Summarize(entries)

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "records: %d\n", s.Records)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)
	fmt.Fprintf(w, "peak_altitude: %d\n", s.PeakAlt)

	modes := make([]string, 0, len(s.ModeTime))
	for m := range s.ModeTime {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	fmt.Fprintf(w, "mode_time:\n")
	for _, m := range modes {
		fmt.Fprintf(w, "  %s: %s\n", m, s.ModeTime[m])
	}
	return nil
}
