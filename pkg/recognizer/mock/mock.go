// Package mock provides test doubles for the recognizer package interfaces.
//
// Use Provider to verify that the caller opens streams with the expected
// StreamConfig and to control how many streams can be opened. Use Stream to
// feed controlled Result and Fault values into the code under test.
//
// Example:
//
//	st := mock.NewStream()
//	p := &mock.Provider{Streams: []*mock.Stream{st}}
//	handle, _ := p.Listen(ctx, cfg)
//	st.Emit(recognizer.Result{Text: "hey browser", IsFinal: true})
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voxnav/pkg/recognizer"
)

// ListenCall records a single invocation of Provider.Listen.
type ListenCall struct {
	// Ctx is the context passed to Listen.
	Ctx context.Context
	// Cfg is the StreamConfig passed to Listen.
	Cfg recognizer.StreamConfig
}

// Provider is a mock implementation of recognizer.Provider.
type Provider struct {
	mu sync.Mutex

	// Streams are returned by successive Listen calls in order. When the
	// slice is exhausted (or nil), Listen returns a fresh default Stream.
	Streams []*Stream

	// ListenErr, if non-nil, is returned as the error from Listen.
	ListenErr error

	// ListenCalls records every call to Listen.
	ListenCalls []ListenCall

	next int
}

// Listen records the call and returns the next configured Stream.
func (p *Provider) Listen(ctx context.Context, cfg recognizer.StreamConfig) (recognizer.Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ListenCalls = append(p.ListenCalls, ListenCall{Ctx: ctx, Cfg: cfg})
	if p.ListenErr != nil {
		return nil, p.ListenErr
	}
	if p.next < len(p.Streams) {
		st := p.Streams[p.next]
		p.next++
		return st, nil
	}
	return NewStream(), nil
}

// AddStream queues another stream for a future Listen call. Safe to call
// while the code under test is running.
func (p *Provider) AddStream(st *Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Streams = append(p.Streams, st)
}

// Calls returns the number of Listen invocations so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ListenCalls)
}

// CallLog returns a copy of the recorded Listen invocations.
func (p *Provider) CallLog() []ListenCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ListenCall, len(p.ListenCalls))
	copy(out, p.ListenCalls)
	return out
}

// Ensure Provider implements recognizer.Provider at compile time.
var _ recognizer.Provider = (*Provider)(nil)

// Stream is a mock implementation of recognizer.Stream. Feed events with
// Emit and EmitFault; terminate the stream with End or Close.
type Stream struct {
	results chan recognizer.Result
	faults  chan recognizer.Fault

	mu     sync.Mutex
	closed bool
}

// NewStream returns a Stream with buffered event channels.
func NewStream() *Stream {
	return &Stream{
		results: make(chan recognizer.Result, 16),
		faults:  make(chan recognizer.Fault, 16),
	}
}

// Emit delivers a recognition result to the stream's consumer.
// Emit on an ended stream is a no-op.
func (s *Stream) Emit(r recognizer.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.results <- r
}

// EmitFault delivers a recognizer fault to the stream's consumer.
func (s *Stream) EmitFault(f recognizer.Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.faults <- f
}

// End simulates a backend-side stream termination (silence timeout, service
// close) by closing both event channels. Safe to call multiple times.
func (s *Stream) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.results)
	close(s.faults)
}

// Results returns the result channel.
func (s *Stream) Results() <-chan recognizer.Result { return s.results }

// Faults returns the fault channel.
func (s *Stream) Faults() <-chan recognizer.Fault { return s.faults }

// Close ends the stream. It never fails.
func (s *Stream) Close() error {
	s.End()
	return nil
}

// Closed reports whether the stream has ended.
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Ensure Stream implements recognizer.Stream at compile time.
var _ recognizer.Stream = (*Stream)(nil)
