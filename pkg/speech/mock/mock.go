// Package mock provides a recording test double for speech.Synthesizer.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voxnav/pkg/speech"
)

// Synthesizer records every spoken text for assertion in tests.
type Synthesizer struct {
	mu sync.Mutex

	// Err, if non-nil, is returned by every Speak call (after recording).
	Err error

	// Spoken holds the texts passed to Speak, in order.
	Spoken []string
}

// Speak records text and returns Err.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Spoken = append(s.Spoken, text)
	return s.Err
}

// Texts returns a copy of the recorded texts.
func (s *Synthesizer) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Spoken))
	copy(out, s.Spoken)
	return out
}

// Ensure Synthesizer implements speech.Synthesizer at compile time.
var _ speech.Synthesizer = (*Synthesizer)(nil)
