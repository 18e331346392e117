// Package logging implements the engine's single observability
// contract: an asynchronous sink of structured log records with one
// consumer, plus thin per-component loggers over it.
//
// The sink formats with zerolog: the engine-internal async sink, kept
// deliberately separate from any operator-facing logger so the two
// concerns never share one instance.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Level mirrors the small set of levels the engine's components emit.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Record is one entry queued onto the Hook.
type Record struct {
	ProcessName string
	Message     string
	Level       Level
	Payload     map[string]interface{}
}

// Hook is the process-wide asynchronous logging sink. It is
// constructed lazily on first use (see Default) and torn down via
// Close, which drains pending records before returning.
type Hook struct {
	records chan Record
	done    chan struct{}
	logger  zerolog.Logger

	closeOnce sync.Once
}

// NewHook creates a Hook writing formatted records to w with the given
// channel capacity. A capacity of 0 uses a sensible default.
func NewHook(w io.Writer, capacity int) *Hook {
	if w == nil {
		w = os.Stderr
	}
	if capacity <= 0 {
		capacity = 256
	}
	h := &Hook{
		records: make(chan Record, capacity),
		done:    make(chan struct{}),
		logger:  zerolog.New(w).With().Timestamp().Logger(),
	}
	go h.consume()
	return h
}

func (h *Hook) consume() {
	defer close(h.done)
	for rec := range h.records {
		ev := h.logger.WithLevel(rec.Level.zerolog())
		if rec.ProcessName != "" {
			ev = ev.Str("process", rec.ProcessName)
		}
		for k, v := range rec.Payload {
			ev = ev.Interface(k, v)
		}
		ev.Msg(rec.Message)
	}
}

// Emit queues a record for asynchronous formatting. It never blocks the
// caller on I/O; if the channel is full the record is dropped rather
// than stalling the emitting goroutine, since logging must never be
// load-bearing for engine correctness.
func (h *Hook) Emit(rec Record) {
	if h == nil {
		return
	}
	select {
	case h.records <- rec:
	default:
	}
}

// Close stops accepting new records and waits for the consumer to
// drain the queue.
func (h *Hook) Close() {
	if h == nil {
		return
	}
	h.closeOnce.Do(func() {
		close(h.records)
	})
	<-h.done
}

var (
	defaultOnce sync.Once
	defaultHook *Hook
)

// Default returns the process-wide Hook, constructing it on first use.
func Default() *Hook {
	defaultOnce.Do(func() {
		defaultHook = NewHook(os.Stderr, 0)
	})
	return defaultHook
}
