// Package recognizer defines the Provider interface for continuous
// speech-recognition backends.
//
// A recognizer wraps a real-time transcription service (e.g., the Deepgram
// streaming API or a local recognition daemon) and exposes a uniform streaming
// interface. The central abstraction is Stream: once opened, a stream emits
// Result values for interim and final recognition hypotheses and Fault values
// for recoverable and fatal recognizer conditions. A stream that stops
// producing results (silence timeout, service-side close) terminates by
// closing its Results channel; restarting is the caller's responsibility —
// see the session package, which owns the restart policy.
//
// Implementations must be safe for concurrent use.
package recognizer

import "context"

// Result is a single recognition hypothesis from the stream.
type Result struct {
	// Text is the recognized speech content.
	Text string

	// IsFinal indicates whether this is a final (authoritative) or interim
	// hypothesis. Only final results should drive command handling.
	IsFinal bool

	// Confidence is the overall confidence score (0.0–1.0). May be zero when
	// the backend does not report confidence.
	Confidence float64
}

// FaultCode classifies recognizer faults. The codes mirror the error names
// commonly reported by browser and cloud recognition engines.
type FaultCode string

const (
	// FaultNoSpeech means the engine heard nothing. Transient; ignore.
	FaultNoSpeech FaultCode = "no-speech"

	// FaultAborted means the stream was aborted mid-utterance. Transient.
	FaultAborted FaultCode = "aborted"

	// FaultAudioCapture means the audio input briefly dropped out. Transient.
	FaultAudioCapture FaultCode = "audio-capture"

	// FaultNotAllowed means microphone permission was revoked. Fatal for the
	// stream; the session must stop listening and surface the error.
	FaultNotAllowed FaultCode = "not-allowed"

	// FaultService covers backend-side failures (network, quota). The stream
	// ends; the caller may restart it.
	FaultService FaultCode = "service"
)

// Transient reports whether the fault is recoverable without user action.
func (c FaultCode) Transient() bool {
	switch c {
	case FaultNoSpeech, FaultAborted, FaultAudioCapture:
		return true
	}
	return false
}

// Fault is a recognizer error event delivered alongside results.
type Fault struct {
	Code    FaultCode
	Message string
}

// StreamConfig describes the recognition parameters for a new stream.
type StreamConfig struct {
	// Language is the BCP-47 language tag for recognition (e.g., "en-US").
	// An empty string lets the backend pick its default.
	Language string

	// InterimResults requests low-latency interim hypotheses in addition to
	// finals. Backends that cannot produce interims may ignore this.
	InterimResults bool
}

// Stream represents an open continuous-recognition stream. It is an interface
// so that test code can provide mock implementations without a live backend.
//
// Callers must call Close when the stream is no longer needed; failing to do
// so may leak goroutines and network connections inside the implementation.
// All methods must be safe for concurrent use.
type Stream interface {
	// Results returns a read-only channel emitting recognition hypotheses in
	// delivery order. The channel is closed when the stream ends, whether by
	// Close, a fatal fault, or a backend-side termination.
	Results() <-chan Result

	// Faults returns a read-only channel emitting recognizer faults. The
	// channel is closed together with Results.
	Faults() <-chan Fault

	// Close terminates the stream and releases its resources. After Close
	// returns, no further events are delivered on Results or Faults.
	// Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any continuous-recognition backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Listen opens a new continuous-recognition stream. The returned Stream
	// is live immediately. Returns an error if the backend cannot establish
	// the stream (authentication failure, unsupported configuration, or ctx
	// already cancelled).
	Listen(ctx context.Context, cfg StreamConfig) (Stream, error)
}
