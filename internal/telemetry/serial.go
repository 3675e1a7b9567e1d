package telemetry

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// serialQueueDepth bounds how many status blocks may wait for the port. At
// 9600 baud one block takes ~80ms to drain, far longer than a control pass, so
// writes happen on a separate goroutine and overflow is dropped.
const serialQueueDepth = 4

// SerialSink writes the formatted status block to a serial port.
type SerialSink struct {
	w io.WriteCloser

	queue   chan string
	dropped atomic.Uint64

	mu      sync.Mutex
	lastErr error

	closeOnce sync.Once
	done      chan struct{}
}

func NewSerialSink(w io.WriteCloser) *SerialSink {
	s := &SerialSink{
		w:     w,
		queue: make(chan string, serialQueueDepth),
		done:  make(chan struct{}),
	}
	go s.writer()
	return s
}

// OpenSerialSink opens device at baud (8N1, raw) and returns a sink on it.
func OpenSerialSink(device string, baud int) (*SerialSink, error) {
	f, err := openSerial(device, baud)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open serial %s: %w", device, err)
	}
	return NewSerialSink(f), nil
}

func (s *SerialSink) writer() {
	defer close(s.done)
	for block := range s.queue {
		if _, err := io.WriteString(s.w, block); err != nil {
			s.mu.Lock()
			s.lastErr = err
			s.mu.Unlock()
		}
	}
}

// Publish queues the record without blocking. It returns the most recent
// write error, if any, so the caller can surface a broken port.
func (s *SerialSink) Publish(rec Record) error {
	select {
	case s.queue <- Format(rec):
	default:
		s.dropped.Add(1)
	}
	s.mu.Lock()
	err := s.lastErr
	s.lastErr = nil
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("telemetry: serial write: %w", err)
	}
	return nil
}

// Dropped returns how many records were discarded because the port was busy.
func (s *SerialSink) Dropped() uint64 { return s.dropped.Load() }

// Close drains queued blocks and closes the port.
func (s *SerialSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.queue)
		<-s.done
		err = s.w.Close()
	})
	return err
}
