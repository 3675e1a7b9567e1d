package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Flight log format: line-oriented text.
//
// - Blank lines ignored.
// - Lines starting with '#' are comments; the writer emits "# session <uuid>".
// - Line "START" begins a segment (record times restart at 0).
// - Data lines are: <t_ns>,<json>
//   where t_ns is nanoseconds since START and json is one Record.

type Entry struct {
	At time.Duration
	// Record is nil for a START marker.
	Record *Record
}

type LogReader struct {
	r io.Reader
}

func NewLogReader(r io.Reader) *LogReader {
	return &LogReader{r: r}
}

func (lr *LogReader) ReadAll() ([]Entry, error) {
	s := bufio.NewScanner(lr.r)
	s.Buffer(make([]byte, 0, 16*1024), 256*1024)

	out := make([]Entry, 0, 1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			out = append(out, Entry{})
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, fmt.Errorf("invalid flight log line (missing comma): %q", line)
		}
		tsStr := strings.TrimSpace(line[:comma])
		body := strings.TrimSpace(line[comma+1:])
		if tsStr == "" || body == "" {
			return nil, fmt.Errorf("invalid flight log line (empty field): %q", line)
		}
		tsNs, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid flight log timestamp %q: %w", tsStr, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("invalid flight log timestamp (negative): %d", tsNs)
		}
		var rec Record
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("invalid flight log record: %w", err)
		}
		out = append(out, Entry{At: time.Duration(tsNs), Record: &rec})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Recorder is a Sink that appends records to a flight log file.
type Recorder struct {
	f       *os.File
	w       *bufio.Writer
	start   time.Time
	session string
	closed  bool

	now func() time.Time
}

func CreateRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r, err := newRecorder(f, time.Now)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func newRecorder(f *os.File, now func() time.Time) (*Recorder, error) {
	id := uuid.New().String()
	bw := bufio.NewWriterSize(f, 32*1024)
	if _, err := fmt.Fprintf(bw, "# session %s\nSTART\n", id); err != nil {
		return nil, err
	}
	return &Recorder{f: f, w: bw, start: now(), session: id, now: now}, nil
}

func (r *Recorder) Session() string { return r.session }

func (r *Recorder) Publish(rec Record) error {
	if r.closed {
		return errors.New("flight log is closed")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	d := r.now().Sub(r.start)
	if d < 0 {
		d = 0
	}
	_, err = fmt.Fprintf(r.w, "%d,%s\n", d.Nanoseconds(), b)
	return err
}

func (r *Recorder) Flush() error {
	if r.closed {
		return nil
	}
	return r.w.Flush()
}

func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.w.Flush(); err != nil {
		_ = r.f.Close()
		return err
	}
	return r.f.Close()
}
