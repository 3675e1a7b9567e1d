package systick

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

const (
	DefaultRateHz     = 100
	DefaultSlowRateHz = 4
)

// Converter performs one altitude conversion. It fuses the trigger and the
// conversion-complete delivery of the sampling hardware into a single call.
type Converter interface {
	Convert() (uint16, error)
}

// SampleWriter receives converted samples.
type SampleWriter interface {
	Write(v uint16)
}

type Config struct {
	RateHz     int
	SlowRateHz int
}

// Timer is the fixed-rate system tick. Every tick it runs one conversion into
// the sample buffer; every RateHz/SlowRateHz ticks it raises the slow-tick
// flag consumed by the control loop.
type Timer struct {
	cfg     Config
	adc     Converter
	out     SampleWriter
	perSlow int

	ticks     atomic.Uint64
	tickCount int
	slow      atomic.Bool

	convErrs atomic.Uint64
	lastLog  time.Time
}

func New(cfg Config, adc Converter, out SampleWriter) *Timer {
	if cfg.RateHz <= 0 {
		cfg.RateHz = DefaultRateHz
	}
	if cfg.SlowRateHz <= 0 {
		cfg.SlowRateHz = DefaultSlowRateHz
	}
	perSlow := cfg.RateHz / cfg.SlowRateHz
	if perSlow < 1 {
		perSlow = 1
	}
	return &Timer{cfg: cfg, adc: adc, out: out, perSlow: perSlow}
}

func (t *Timer) Period() time.Duration {
	return time.Second / time.Duration(t.cfg.RateHz)
}

// Tick runs one timer period. Run calls it from its ticker; tests call it
// directly.
func (t *Timer) Tick() {
	if v, err := t.adc.Convert(); err != nil {
		n := t.convErrs.Add(1)
		if now := time.Now(); now.Sub(t.lastLog) >= 5*time.Second {
			t.lastLog = now
			log.Printf("systick: conversion failed (%d total): %v", n, err)
		}
	} else {
		t.out.Write(v)
	}
	t.ticks.Add(1)

	t.tickCount++
	if t.tickCount >= t.perSlow {
		t.tickCount = 0
		t.slow.Store(true)
	}
}

// TakeSlowTick reports whether a slow tick fired since the last call, and
// clears the flag.
func (t *Timer) TakeSlowTick() bool { return t.slow.Swap(false) }

func (t *Timer) Ticks() uint64 { return t.ticks.Load() }

func (t *Timer) ConversionErrors() uint64 { return t.convErrs.Load() }

func (t *Timer) Run(ctx context.Context) {
	tk := time.NewTicker(t.Period())
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.Tick()
		}
	}
}
