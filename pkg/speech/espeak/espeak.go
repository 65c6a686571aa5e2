// Package espeak implements speech.Synthesizer by invoking the espeak-ng
// command-line synthesizer. It requires espeak-ng to be installed and on PATH.
package espeak

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const defaultBinary = "espeak-ng"

// Option is a functional option for configuring a Synthesizer.
type Option func(*Synthesizer)

// WithVoice sets the espeak voice/language (e.g. "en-us", "de"). When empty,
// espeak-ng's default voice is used.
func WithVoice(voice string) Option {
	return func(s *Synthesizer) {
		s.voice = voice
	}
}

// WithBinary overrides the espeak-ng binary path. Useful when the binary is
// installed outside PATH or named "espeak".
func WithBinary(path string) Option {
	return func(s *Synthesizer) {
		if path != "" {
			s.binary = path
		}
	}
}

// Synthesizer speaks text through an espeak-ng subprocess. Each Speak call
// runs one synchronous process; overlapping calls play concurrently.
type Synthesizer struct {
	binary string
	voice  string
}

// New returns a Synthesizer configured with the supplied options.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{binary: defaultBinary}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Speak voices text via espeak-ng, blocking until playback completes or ctx
// is cancelled. Empty or whitespace-only text is a no-op.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	args := []string{}
	if s.voice != "" {
		args = append(args, "-v", s.voice)
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, s.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("espeak: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
