// Package realtimetest provides a recording Sink for fan-out tests.
package realtimetest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"electionhub/internal/realtime/registry"
)

// Sink records frames and close calls. It can be stalled to simulate a slow
// client; a stalled write still honours its context.
type Sink struct {
	mu       sync.Mutex
	frames   [][]byte
	closed   bool
	code     registry.CloseCode
	reason   string
	stall    chan struct{}
	failWith error
}

// NewSink returns a sink that accepts every write.
func NewSink() *Sink {
	return &Sink{}
}

// Stall makes subsequent writes block until Release or context expiry.
func (s *Sink) Stall() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stall == nil {
		s.stall = make(chan struct{})
	}
}

// Release unblocks stalled writes.
func (s *Sink) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stall != nil {
		close(s.stall)
		s.stall = nil
	}
}

// FailWrites makes subsequent writes return err.
func (s *Sink) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *Sink) WriteFrame(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	stall := s.stall
	failWith := s.failWith
	s.mu.Unlock()

	if stall != nil {
		select {
		case <-stall:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if failWith != nil {
		return failWith
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("sink closed")
	}
	s.frames = append(s.frames, append([]byte(nil), frame...))
	return nil
}

func (s *Sink) Close(code registry.CloseCode, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.code = code
	s.reason = reason
	return nil
}

// Frames returns a copy of every frame written so far.
func (s *Sink) Frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

// Decoded returns the written frames as generic JSON objects.
func (s *Sink) Decoded() []map[string]any {
	frames := s.Frames()
	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// Types returns the "type" field of each written frame.
func (s *Sink) Types() []string {
	decoded := s.Decoded()
	out := make([]string, 0, len(decoded))
	for _, m := range decoded {
		t, _ := m["type"].(string)
		out = append(out, t)
	}
	return out
}

// Closed reports whether Close was called, and with what.
func (s *Sink) Closed() (bool, registry.CloseCode, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed, s.code, s.reason
}
