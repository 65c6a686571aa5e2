package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/voxnav/internal/action"
	"github.com/MrWong99/voxnav/internal/config"
	"github.com/MrWong99/voxnav/internal/hud"
	hudmock "github.com/MrWong99/voxnav/internal/hud/mock"
	"github.com/MrWong99/voxnav/internal/page"
	"github.com/MrWong99/voxnav/internal/session"
	"github.com/MrWong99/voxnav/pkg/browser"
	browsermock "github.com/MrWong99/voxnav/pkg/browser/mock"
	"github.com/MrWong99/voxnav/pkg/recognizer"
	recmock "github.com/MrWong99/voxnav/pkg/recognizer/mock"
)

type fixture struct {
	provider *recmock.Provider
	stream   *recmock.Stream
	surface  *browsermock.Surface
	notifier *hudmock.Notifier
	sess     *session.Session

	cancel context.CancelFunc
	done   chan error
}

// start builds a session over mocks and runs it on a goroutine.
func start(t *testing.T, candidates []browser.Candidate, opts ...session.Option) *fixture {
	t.Helper()
	f := &fixture{
		stream:   recmock.NewStream(),
		surface:  browsermock.NewSurface(candidates...),
		notifier: &hudmock.Notifier{},
		done:     make(chan error, 1),
	}
	f.provider = &recmock.Provider{Streams: []*recmock.Stream{f.stream}}

	registry := page.New(f.surface)
	if err := registry.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	exec := action.New(f.surface, &browsermock.Tabs{}, &browsermock.Overlay{}, registry, f.notifier, 400, action.WithNavDelay(0))

	opts = append([]session.Option{session.WithRestartDelay(time.Millisecond)}, opts...)
	f.sess = session.New(f.provider, exec, f.notifier, "hey browser", opts...)

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() { f.done <- f.sess.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-f.done:
		case <-time.After(2 * time.Second):
			t.Error("session did not stop")
		}
	})

	waitFor(t, "session listening", f.sess.Listening)
	return f
}

// waitFor polls cond until it holds or the test deadline expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func final(text string) recognizer.Result {
	return recognizer.Result{Text: text, IsFinal: true, Confidence: 0.9}
}

func TestSessionIgnoresCommandsWhileIdle(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.Emit(final("scroll down"))
	f.stream.Emit(final("reload the page"))

	// Give the loop time to (not) act, then check nothing reached the page.
	time.Sleep(50 * time.Millisecond)
	if got := len(f.surface.CallOps()); got != 0 {
		t.Errorf("%d page effects while idle, want 0", got)
	}
	if f.sess.Mode() != session.ModeIdle {
		t.Errorf("mode = %v, want idle", f.sess.Mode())
	}
}

func TestSessionWakesOnWakeWord(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.Emit(final("Hey Browser!"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	if last := f.notifier.Last(); last.Class != hud.ClassListening {
		t.Errorf("status class = %q, want listening", last.Class)
	}
}

func TestSessionExecutesCommandAfterWake(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	f.stream.Emit(final("scroll down"))
	waitFor(t, "scroll effect", func() bool { return len(f.surface.CallOps()) == 1 })
	if op := f.surface.CallOps()[0]; op != "scrollBy" {
		t.Errorf("effect = %s, want scrollBy", op)
	}
}

func TestSessionRunsCommandTrailingWakeWord(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.Emit(final("hey browser scroll down"))
	waitFor(t, "scroll effect", func() bool { return len(f.surface.CallOps()) == 1 })
	if f.sess.Mode() != session.ModeCommand {
		t.Errorf("mode = %v, want command", f.sess.Mode())
	}
}

func TestSessionToleratesRecognizerNoise(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	// One substituted character must still match.
	f.stream.Emit(final("scroll doen"))
	waitFor(t, "scroll effect", func() bool { return len(f.surface.CallOps()) == 1 })
}

func TestSessionInterimResultsDoNotTrigger(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.Emit(recognizer.Result{Text: "hey browser", IsFinal: false})
	time.Sleep(50 * time.Millisecond)
	if f.sess.Mode() != session.ModeIdle {
		t.Error("interim hypothesis woke the session")
	}
}

func TestSessionSignsOffAfterInactivity(t *testing.T) {
	t.Parallel()
	f := start(t, nil, session.WithInactivityDeadline(30*time.Millisecond))

	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })
	waitFor(t, "idle again", func() bool { return f.sess.Mode() == session.ModeIdle })

	// Asleep again: commands are ignored until the next wake word.
	f.stream.Emit(final("scroll down"))
	time.Sleep(50 * time.Millisecond)
	if got := len(f.surface.CallOps()); got != 0 {
		t.Errorf("%d page effects after sign-off, want 0", got)
	}
}

func TestSessionStopListeningCommand(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	f.stream.Emit(final("go to sleep"))
	waitFor(t, "idle", func() bool { return f.sess.Mode() == session.ModeIdle })

	// The stream stays open for the next wake word.
	if f.stream.Closed() {
		t.Error("stream closed on sign-off")
	}
	f.stream.Emit(final("hey browser"))
	waitFor(t, "awake again", func() bool { return f.sess.Mode() == session.ModeCommand })
}

func TestSessionDictation(t *testing.T) {
	t.Parallel()
	f := start(t, nil)
	f.surface.FocusedEditable = true

	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	f.stream.Emit(final("start typing"))
	waitFor(t, "dictation mode", func() bool { return f.sess.Mode() == session.ModeDictation })

	f.stream.Emit(final("hello world"))
	f.stream.Emit(final("this is dictated"))
	waitFor(t, "dictated text", func() bool {
		return f.surface.Focused() == "hello world this is dictated "
	})

	// Command words are text while dictating, not commands.
	if got := len(f.surface.CallOps()); got != 2 {
		t.Errorf("%d effects, want 2 appends", got)
	}

	f.stream.Emit(final("stop typing"))
	waitFor(t, "command mode again", func() bool { return f.sess.Mode() == session.ModeCommand })
}

func TestSessionDictationExitToleratesNoise(t *testing.T) {
	t.Parallel()
	f := start(t, nil)
	f.surface.FocusedEditable = true

	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })
	f.stream.Emit(final("start typing"))
	waitFor(t, "dictation mode", func() bool { return f.sess.Mode() == session.ModeDictation })

	// "stop typin" scores above the 0.8 exit threshold.
	f.stream.Emit(final("stop typin"))
	waitFor(t, "command mode again", func() bool { return f.sess.Mode() == session.ModeCommand })
}

func TestSessionClarifyOnNearMiss(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	f.stream.Emit(final("show me"))
	waitFor(t, "clarify status", func() bool {
		last := f.notifier.Last()
		return last.Class == hud.ClassError && last.Icon == "?"
	})
	if got := len(f.surface.CallOps()); got != 0 {
		t.Errorf("%d page effects for a near-miss, want 0", got)
	}
}

func TestSessionRestartsEndedStream(t *testing.T) {
	t.Parallel()
	second := recmock.NewStream()
	f := start(t, nil)
	f.provider.AddStream(second)

	f.stream.End()
	waitFor(t, "stream restart", func() bool { return f.provider.Calls() == 2 })

	// The replacement stream is live.
	second.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })
}

func TestSessionSignsOffAfterRestartWithoutTranscripts(t *testing.T) {
	t.Parallel()
	second := recmock.NewStream()
	f := start(t, nil, session.WithInactivityDeadline(100*time.Millisecond))
	f.provider.AddStream(second)

	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	f.stream.End()
	waitFor(t, "stream restart", func() bool { return f.provider.Calls() == 2 })
	if f.sess.Mode() != session.ModeCommand {
		t.Fatalf("mode = %v after restart, want command", f.sess.Mode())
	}

	// Nothing is ever spoken on the replacement stream; the inactivity
	// deadline alone must put the session back to sleep.
	waitFor(t, "sign-off", func() bool { return f.sess.Mode() == session.ModeIdle })
}

func TestSessionIgnoresTransientFaults(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.EmitFault(recognizer.Fault{Code: recognizer.FaultNoSpeech})
	f.stream.EmitFault(recognizer.Fault{Code: recognizer.FaultAborted})
	f.stream.Emit(final("hey browser"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	if f.provider.Calls() != 1 {
		t.Errorf("%d Listen calls, want 1 (no restart for transient faults)", f.provider.Calls())
	}
}

func TestSessionStopsWhenMicrophoneDenied(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.stream.EmitFault(recognizer.Fault{Code: recognizer.FaultNotAllowed, Message: "denied"})

	select {
	case err := <-f.done:
		if !errors.Is(err, session.ErrMicrophoneDenied) {
			t.Errorf("Run() error = %v, want ErrMicrophoneDenied", err)
		}
		f.done <- err // keep the fixture cleanup from blocking
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}
	if f.sess.Listening() {
		t.Error("Listening() = true after fatal fault")
	}
}

func TestSessionSetWakeWord(t *testing.T) {
	t.Parallel()
	f := start(t, nil)
	f.sess.SetWakeWord("Okay Computer")

	f.stream.Emit(final("hey browser"))
	time.Sleep(50 * time.Millisecond)
	if f.sess.Mode() != session.ModeIdle {
		t.Fatal("old wake word still active")
	}

	f.stream.Emit(final("okay computer"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })
}

func TestSessionApplyConfigLanguageRestartsStream(t *testing.T) {
	t.Parallel()
	second := recmock.NewStream()
	f := start(t, nil)
	f.provider.AddStream(second)

	f.sess.ApplyConfig(config.ConfigDiff{LanguageChanged: true, NewLanguage: "de-DE"})
	waitFor(t, "stream restart", func() bool { return f.provider.Calls() == 2 })

	if got := f.provider.CallLog()[1].Cfg.Language; got != "de-DE" {
		t.Errorf("restarted stream language = %q, want de-DE", got)
	}
}

func TestSessionApplyConfigWakeWord(t *testing.T) {
	t.Parallel()
	f := start(t, nil)

	f.sess.ApplyConfig(config.ConfigDiff{WakeWordChanged: true, NewWakeWord: "hello machine"})
	f.stream.Emit(final("hello machine"))
	waitFor(t, "command mode", func() bool { return f.sess.Mode() == session.ModeCommand })

	if f.provider.Calls() != 1 {
		t.Errorf("%d Listen calls, want 1 (wake word is hot)", f.provider.Calls())
	}
}
