// Command voxnav is the voice-controlled browser-navigation daemon.
//
// It connects to a Chromium-family browser over the DevTools protocol, opens
// a continuous speech-recognition stream (PCM audio read from stdin, e.g.
// `arecord -f S16_LE -r 16000 -c 1 | voxnav`), and translates spoken commands
// into page actions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voxnav/internal/action"
	"github.com/MrWong99/voxnav/internal/config"
	"github.com/MrWong99/voxnav/internal/health"
	"github.com/MrWong99/voxnav/internal/hud"
	"github.com/MrWong99/voxnav/internal/observe"
	"github.com/MrWong99/voxnav/internal/page"
	"github.com/MrWong99/voxnav/internal/session"
	"github.com/MrWong99/voxnav/pkg/browser/chrome"
	"github.com/MrWong99/voxnav/pkg/recognizer"
	"github.com/MrWong99/voxnav/pkg/recognizer/deepgram"
	"github.com/MrWong99/voxnav/pkg/speech"
	"github.com/MrWong99/voxnav/pkg/speech/espeak"
)

// version is set via -ldflags at build time.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxnav: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxnav: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	slog.Info("voxnav starting",
		"version", version,
		"config", *configPath,
		"devtools_url", cfg.Browser.DevToolsURL,
		"recognizer", cfg.Recognizer.Name,
		"wake_word", cfg.Session.WakeWord,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics ───────────────────────────────────────────────────────────────
	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "voxnav",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shCtx); err != nil {
			slog.Warn("metrics shutdown", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create instruments", "err", err)
		return 1
	}

	// ── Browser connection ────────────────────────────────────────────────────
	browserConn, err := chrome.Connect(ctx, cfg.Browser.DevToolsURL)
	if err != nil {
		slog.Error("failed to connect to browser", "err", err, "devtools_url", cfg.Browser.DevToolsURL)
		return 1
	}
	defer browserConn.Close()

	registry := page.New(browserConn, page.WithMetrics(metrics))
	if err := registry.Rebuild(ctx); err != nil {
		slog.Warn("initial element scan failed", "err", err)
	}

	// ── Speech synthesis ──────────────────────────────────────────────────────
	synth := buildSynthesizer(cfg.Speech)

	// ── Recognizer ────────────────────────────────────────────────────────────
	provider, err := buildRecognizer(cfg.Recognizer)
	if err != nil {
		slog.Error("failed to build recognizer", "err", err)
		return 1
	}

	// ── Session ───────────────────────────────────────────────────────────────
	notifier := hud.LogNotifier{}

	execOpts := []action.Option{action.WithMetrics(metrics)}
	if synth != nil {
		execOpts = append(execOpts, action.WithSynthesizer(synth))
	}
	exec := action.New(browserConn, browserConn, browserConn, registry, notifier,
		cfg.Browser.ScrollAmount, execOpts...)

	sessOpts := []session.Option{
		session.WithLanguage(cfg.Recognizer.Language),
		session.WithDictationExitThreshold(cfg.Matching.DictationExitThreshold),
		session.WithMetrics(metrics),
	}
	if synth != nil {
		sessOpts = append(sessOpts, session.WithSynthesizer(synth))
	}
	sess := session.New(provider, exec, notifier, cfg.Session.WakeWord, sessOpts...)
	sess.SetAcceptThreshold(cfg.Matching.AcceptThreshold)

	// ── Config hot-reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if !d.Any() {
			return
		}
		if d.LogLevelChanged {
			slog.SetDefault(newLogger(new.Server.LogLevel))
		}
		sess.ApplyConfig(d)
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("ready — say the wake word to start", "wake_word", cfg.Session.WakeWord)

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		registry.Watch(gctx)
		return nil
	})

	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		health.New(sess.Listening, health.Checker{
			Name: "browser",
			Check: func(ctx context.Context) error {
				_, err := browserConn.QueryInteractiveElements(ctx)
				return err
			},
		}).Register(mux)
		srv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}

		g.Go(func() error {
			slog.Info("metrics endpoint listening", "addr", cfg.Server.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics endpoint: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return srv.Shutdown(shCtx)
		})
	}

	g.Go(func() error {
		return sess.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("session ended", "err", err)
		return 1
	}

	slog.Info("voxnav stopped")
	return 0
}

// buildRecognizer constructs the configured recognition backend.
func buildRecognizer(cfg config.RecognizerConfig) (recognizer.Provider, error) {
	switch cfg.Name {
	case "deepgram":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("DEEPGRAM_API_KEY")
		}
		var opts []deepgram.Option
		if cfg.Model != "" {
			opts = append(opts, deepgram.WithModel(cfg.Model))
		}
		return deepgram.New(apiKey, os.Stdin, opts...)
	default:
		return nil, fmt.Errorf("unknown recognizer backend %q", cfg.Name)
	}
}

// buildSynthesizer constructs the configured speech backend, or nil when
// spoken announcements are disabled.
func buildSynthesizer(cfg config.SpeechConfig) speech.Synthesizer {
	switch cfg.Name {
	case "espeak":
		var opts []espeak.Option
		if cfg.Voice != "" {
			opts = append(opts, espeak.WithVoice(cfg.Voice))
		}
		if cfg.Binary != "" {
			opts = append(opts, espeak.WithBinary(cfg.Binary))
		}
		return espeak.New(opts...)
	default:
		return nil
	}
}

// newLogger builds the default text logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
