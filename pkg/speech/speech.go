// Package speech defines the Synthesizer interface for text-to-speech
// playback of command acknowledgements.
//
// Playback is fire-and-forget from the command core's perspective: a failed
// or skipped announcement never fails the action that triggered it. The
// espeak subpackage implements the interface by shelling out to espeak-ng,
// and the mock subpackage records spoken text for tests.
package speech

import "context"

// Synthesizer speaks short text announcements to the user.
//
// Implementations must be safe for concurrent use.
type Synthesizer interface {
	// Speak voices text. Speaking empty text is a no-op. Returned errors are
	// advisory; callers log them and continue.
	Speak(ctx context.Context, text string) error
}
