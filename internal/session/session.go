// Package session drives the voice-control lifecycle: it owns the
// recognition stream, the wake-word gate, the command/dictation mode
// machine, and the restart policy for streams that end.
//
// A Session consumes transcripts from a recognizer.Provider stream on a
// single goroutine. While idle it ignores everything except the wake word;
// once woken it feeds utterances to the command matcher, hands executable
// actions to the executor, and falls back asleep after a period of
// inactivity. Dictation is a session-owned mode: while dictating, raw
// transcripts are typed into the page instead of matched, until an exit
// phrase is heard.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/voxnav/internal/action"
	"github.com/MrWong99/voxnav/internal/command"
	"github.com/MrWong99/voxnav/internal/config"
	"github.com/MrWong99/voxnav/internal/hud"
	"github.com/MrWong99/voxnav/internal/observe"
	"github.com/MrWong99/voxnav/pkg/recognizer"
	"github.com/MrWong99/voxnav/pkg/speech"
)

// Default session timings.
const (
	// DefaultInactivityDeadline is how long the session stays awake without
	// hearing anything before signing off.
	DefaultInactivityDeadline = 10 * time.Second

	// DefaultRestartDelay is the pause between a stream ending and the next
	// Listen attempt. It keeps a flapping backend from busy-looping.
	DefaultRestartDelay = 300 * time.Millisecond
)

// ErrMicrophoneDenied is returned by Run when the recognizer reports that
// microphone access was revoked. There is no point restarting; the user has
// to intervene.
var ErrMicrophoneDenied = errors.New("session: microphone access denied")

// Mode is the session's current interpretation of incoming transcripts.
type Mode int

const (
	// ModeIdle ignores everything except the wake word.
	ModeIdle Mode = iota

	// ModeCommand matches utterances against the command vocabulary.
	ModeCommand

	// ModeDictation types raw transcripts into the focused input.
	ModeDictation
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case ModeCommand:
		return "command"
	case ModeDictation:
		return "dictation"
	default:
		return "idle"
	}
}

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithInactivityDeadline sets the awake-without-input timeout. Default: 10s.
func WithInactivityDeadline(d time.Duration) Option {
	return func(s *Session) {
		s.inactivity = d
	}
}

// WithRestartDelay sets the pause before reopening an ended stream.
// Default: 300ms.
func WithRestartDelay(d time.Duration) Option {
	return func(s *Session) {
		s.restartDelay = d
	}
}

// WithDictationExitThreshold sets the minimum similarity for an utterance in
// dictation mode to count as an exit phrase. Default: 0.8.
func WithDictationExitThreshold(threshold float64) Option {
	return func(s *Session) {
		s.dictationExit = threshold
	}
}

// WithLanguage sets the recognition language requested from the provider.
func WithLanguage(lang string) Option {
	return func(s *Session) {
		s.language = lang
	}
}

// WithSynthesizer enables spoken acknowledgements for wake and sign-off.
func WithSynthesizer(synth speech.Synthesizer) Option {
	return func(s *Session) {
		s.synth = synth
	}
}

// WithMetrics records transcript, decision, and restart metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// Session is the top-level voice control loop. Construct with New, then call
// Run on its own goroutine; all other methods are safe to call concurrently
// with Run.
type Session struct {
	provider recognizer.Provider
	exec     *action.Executor
	notifier hud.Notifier
	synth    speech.Synthesizer
	metrics  *observe.Metrics

	inactivity    time.Duration
	restartDelay  time.Duration
	dictationExit float64

	restartC chan struct{}

	mu       sync.Mutex
	matcher  *command.Matcher
	wakeWord string
	language string
	mode     Mode
	running  bool
}

// New returns a Session gated on wakeWord. The matcher is built with the
// default vocabulary; thresholds are adjusted per config via options and
// ApplyConfig.
func New(provider recognizer.Provider, exec *action.Executor, notifier hud.Notifier, wakeWord string, opts ...Option) *Session {
	s := &Session{
		provider:      provider,
		exec:          exec,
		notifier:      notifier,
		matcher:       command.New(),
		wakeWord:      command.Normalize(wakeWord),
		inactivity:    DefaultInactivityDeadline,
		restartDelay:  DefaultRestartDelay,
		dictationExit: command.DefaultDictationExitThreshold,
		restartC:      make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetAcceptThreshold swaps the matcher for one with the given accept
// threshold. Applied live on config reload.
func (s *Session) SetAcceptThreshold(threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matcher = command.New(command.WithAcceptThreshold(threshold))
}

// SetWakeWord updates the wake word without restarting the stream.
func (s *Session) SetWakeWord(word string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w := command.Normalize(word); w != "" {
		s.wakeWord = w
	}
}

// Mode returns the session's current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Listening reports whether Run is consuming a stream.
func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ApplyConfig applies a hot-reload diff. Wake word, thresholds and scroll
// amount take effect immediately; a language change restarts the stream so
// the provider picks it up. Changes flagged RestartRequired (backend, API
// key) are beyond the session's reach and only logged.
func (s *Session) ApplyConfig(d config.ConfigDiff) {
	if d.WakeWordChanged {
		s.SetWakeWord(d.NewWakeWord)
		slog.Info("session: wake word updated", "wake_word", d.NewWakeWord)
	}
	if d.ThresholdsChanged {
		s.SetAcceptThreshold(d.NewAcceptThreshold)
		s.mu.Lock()
		s.dictationExit = d.NewDictationExitThreshold
		s.mu.Unlock()
		slog.Info("session: matching thresholds updated",
			"accept", d.NewAcceptThreshold, "dictation_exit", d.NewDictationExitThreshold)
	}
	if d.ScrollAmountChanged {
		s.exec.SetScrollAmount(d.NewScrollAmount)
	}
	if d.LanguageChanged {
		s.mu.Lock()
		s.language = d.NewLanguage
		s.mu.Unlock()
		s.requestRestart()
		slog.Info("session: recognition language updated", "language", d.NewLanguage)
	}
	if d.RestartRequired {
		slog.Warn("session: config change requires a full process restart to take effect")
	}
}

// requestRestart asks the run loop to drop the current stream and open a new
// one. Coalesces when a restart is already pending.
func (s *Session) requestRestart() {
	select {
	case s.restartC <- struct{}{}:
	default:
	}
}

// Run opens a recognition stream and consumes it until ctx is cancelled or a
// fatal fault occurs. Ended streams are reopened after the restart delay,
// with the previous stream fully closed first so events never interleave.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.ActiveSessions.Add(ctx, 1)
	}
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.ActiveSessions.Add(context.Background(), -1)
		}
	}()

	s.notify("🎤", "say \""+s.currentWakeWord()+"\" to start", hud.ClassListening)

	first := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !first {
			if s.metrics != nil {
				s.metrics.RecognizerRestarts.Add(ctx, 1)
			}
			if !sleep(ctx, s.restartDelay) {
				return ctx.Err()
			}
		}
		first = false

		stream, err := s.provider.Listen(ctx, recognizer.StreamConfig{
			Language:       s.currentLanguage(),
			InterimResults: true,
		})
		if err != nil {
			slog.Warn("session: opening recognition stream failed", "error", err)
			continue
		}

		err = s.consume(ctx, stream)
		if cerr := stream.Close(); cerr != nil {
			slog.Debug("session: closing stream", "error", cerr)
		}
		if err != nil {
			return err
		}
	}
}

// consume drives the event loop for one stream. It returns nil when the
// stream ended and should be reopened, or a terminal error.
func (s *Session) consume(ctx context.Context, stream recognizer.Stream) error {
	results := stream.Results()
	faults := stream.Faults()

	// The deadline stays armed across stream restarts: an awake session
	// must still sign off even if no transcript ever arrives on the new
	// stream.
	deadline := time.NewTimer(s.inactivity)
	if s.Mode() == ModeIdle {
		if !deadline.Stop() {
			<-deadline.C
		}
	}
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.restartC:
			return nil

		case r, ok := <-results:
			if !ok {
				slog.Debug("session: stream ended")
				return nil
			}
			if s.metrics != nil {
				s.metrics.Transcripts.Add(ctx, 1, metric.WithAttributes(
					attribute.Bool("final", r.IsFinal)))
			}
			if !r.IsFinal {
				continue
			}
			s.handleTranscript(ctx, r.Text, deadline)

		case f, ok := <-faults:
			if !ok {
				faults = nil
				continue
			}
			if s.metrics != nil {
				s.metrics.RecognizerFaults.Add(ctx, 1, metric.WithAttributes(
					attribute.String("code", string(f.Code))))
			}
			if f.Code.Transient() {
				slog.Debug("session: transient recognizer fault", "code", f.Code, "message", f.Message)
				continue
			}
			if f.Code == recognizer.FaultNotAllowed {
				s.notify("✗", "microphone access denied", hud.ClassError)
				return ErrMicrophoneDenied
			}
			slog.Warn("session: recognizer fault", "code", f.Code, "message", f.Message)

		case <-deadline.C:
			s.signOff(ctx)
		}
	}
}

// handleTranscript routes one final transcript by mode.
func (s *Session) handleTranscript(ctx context.Context, text string, deadline *time.Timer) {
	norm := command.Normalize(text)
	if norm == "" {
		return
	}

	switch s.Mode() {
	case ModeIdle:
		rest, woke := s.strippedWakeWord(norm)
		if !woke {
			return
		}
		s.setMode(ModeCommand)
		s.notify("🎤", "listening", hud.ClassListening)
		s.announce("yes?")
		s.resetDeadline(deadline)
		slog.Info("session: woke up", "transcript", norm)
		if rest != "" {
			s.handleCommand(ctx, rest)
			s.resetDeadline(deadline)
		}

	case ModeDictation:
		s.resetDeadline(deadline)
		if s.isDictationExit(norm) {
			s.setMode(ModeCommand)
			s.notify("🎤", "command mode", hud.ClassListening)
			return
		}
		if err := s.exec.Dictate(ctx, text); err != nil {
			slog.Warn("session: dictation failed", "error", err)
		}

	case ModeCommand:
		s.resetDeadline(deadline)
		s.handleCommand(ctx, norm)
	}
}

// handleCommand matches one normalized utterance and dispatches the result.
// Mode switches are handled here; everything else goes to the executor.
func (s *Session) handleCommand(ctx context.Context, norm string) {
	s.mu.Lock()
	matcher := s.matcher
	s.mu.Unlock()

	res := matcher.Match(norm)
	if s.metrics != nil {
		s.metrics.CommandDecisions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("decision", res.Decision.String())))
		if res.Score > 0 {
			s.metrics.MatchScore.Record(ctx, res.Score)
		}
	}
	slog.Debug("session: matched utterance",
		"transcript", norm, "decision", res.Decision.String(),
		"action", string(res.Action), "score", res.Score)

	switch res.Decision {
	case command.Matched:
		switch res.Action {
		case command.ActionStartTyping:
			s.setMode(ModeDictation)
			s.notify("⌨", "dictating — say \"stop typing\" to finish", hud.ClassListening)
		case command.ActionStopTyping:
			s.setMode(ModeCommand)
			s.notify("🎤", "command mode", hud.ClassListening)
		case command.ActionStopListening:
			s.signOff(ctx)
		default:
			if err := s.exec.Execute(ctx, res.Action, res.Param); err != nil {
				slog.Warn("session: action failed",
					"action", string(res.Action), "error", err)
			}
		}

	case command.Clarify:
		s.notify("?", "did you mean \""+res.Keyword+"\"?", hud.ClassError)

	default:
		s.notify("✗", "not recognized: "+norm, hud.ClassError)
	}
}

// signOff returns the session to the idle wake-word gate.
func (s *Session) signOff(ctx context.Context) {
	if s.Mode() == ModeIdle {
		return
	}
	s.setMode(ModeIdle)
	s.notify("💤", "going to sleep — say \""+s.currentWakeWord()+"\" to start again", hud.ClassListening)
	s.announce("going to sleep")
	slog.Info("session: signed off")
}

// strippedWakeWord reports whether norm contains the wake word and returns
// whatever follows it, so "hey browser scroll down" wakes the session and
// immediately runs the command.
func (s *Session) strippedWakeWord(norm string) (rest string, woke bool) {
	wake := s.currentWakeWord()
	idx := strings.Index(norm, wake)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(norm[idx+len(wake):]), true
}

// isDictationExit scores norm against the dictation exit phrases.
func (s *Session) isDictationExit(norm string) bool {
	s.mu.Lock()
	threshold := s.dictationExit
	s.mu.Unlock()
	for _, phrase := range []string{"stop typing", "command mode"} {
		if command.Similarity(norm, phrase) >= threshold {
			return true
		}
	}
	return false
}

func (s *Session) setMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

func (s *Session) currentWakeWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wakeWord
}

func (s *Session) currentLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// resetDeadline re-arms the inactivity timer using the stop/drain pattern.
func (s *Session) resetDeadline(deadline *time.Timer) {
	if !deadline.Stop() {
		select {
		case <-deadline.C:
		default:
		}
	}
	deadline.Reset(s.inactivity)
}

func (s *Session) notify(icon, text string, class hud.Class) {
	s.notifier.Notify(hud.Status{Icon: icon, Text: text, Class: class})
}

// announce speaks short acknowledgements without blocking the loop.
func (s *Session) announce(text string) {
	if s.synth == nil {
		return
	}
	go func() {
		if err := s.synth.Speak(context.Background(), text); err != nil {
			slog.Debug("session: acknowledgement failed", "error", err)
		}
	}()
}

// sleep waits d or until ctx is done; reports whether the full duration
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
