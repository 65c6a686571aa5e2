package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/voxnav/internal/command"
	"github.com/MrWong99/voxnav/internal/config"
	"github.com/MrWong99/voxnav/internal/hud"
)

const minimalYAML = `
browser:
  devtools_url: ws://127.0.0.1:9222
recognizer:
  name: deepgram
`

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Session.WakeWord != config.DefaultWakeWord {
		t.Errorf("wake word = %q, want default %q", cfg.Session.WakeWord, config.DefaultWakeWord)
	}
	if cfg.Browser.ScrollAmount != config.DefaultScrollAmount {
		t.Errorf("scroll amount = %d, want default %d", cfg.Browser.ScrollAmount, config.DefaultScrollAmount)
	}
	if cfg.Matching.AcceptThreshold != command.DefaultAcceptThreshold {
		t.Errorf("accept threshold = %v, want default %v", cfg.Matching.AcceptThreshold, command.DefaultAcceptThreshold)
	}
	if cfg.Matching.DictationExitThreshold != command.DefaultDictationExitThreshold {
		t.Errorf("dictation exit threshold = %v, want default %v", cfg.Matching.DictationExitThreshold, command.DefaultDictationExitThreshold)
	}
	if cfg.HUD.Position != hud.PositionBottomRight {
		t.Errorf("hud position = %q, want default bottom-right", cfg.HUD.Position)
	}
	if cfg.HUD.Opacity != config.DefaultHUDOpacity {
		t.Errorf("hud opacity = %v, want default %v", cfg.HUD.Opacity, config.DefaultHUDOpacity)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log level = %q, want default info", cfg.Server.LogLevel)
	}
}

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()

	const yamlDoc = `
server:
  metrics_addr: ":9090"
  log_level: debug
browser:
  devtools_url: ws://127.0.0.1:9222
  scroll_amount: 250
recognizer:
  name: deepgram
  api_key: dg-secret
  model: nova-3
  language: de-DE
speech:
  name: espeak
  voice: de
session:
  wake_word: hallo browser
matching:
  accept_threshold: 0.7
  dictation_exit_threshold: 0.9
hud:
  position: top-left
  opacity: 0.5
`
	cfg, err := config.LoadFromReader(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Session.WakeWord != "hallo browser" {
		t.Errorf("wake word = %q", cfg.Session.WakeWord)
	}
	if cfg.Recognizer.Language != "de-DE" {
		t.Errorf("language = %q", cfg.Recognizer.Language)
	}
	if cfg.Matching.AcceptThreshold != 0.7 {
		t.Errorf("accept threshold = %v", cfg.Matching.AcceptThreshold)
	}
	if cfg.HUD.Position != hud.PositionTopLeft {
		t.Errorf("hud position = %q", cfg.HUD.Position)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := config.LoadFromReader(strings.NewReader("bogus_section:\n  x: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantSub string
	}{
		{
			name:    "missing devtools url",
			mutate:  func(c *config.Config) { c.Browser.DevToolsURL = "" },
			wantSub: "devtools_url",
		},
		{
			name:    "negative scroll amount",
			mutate:  func(c *config.Config) { c.Browser.ScrollAmount = -10 },
			wantSub: "scroll_amount",
		},
		{
			name:    "unknown recognizer",
			mutate:  func(c *config.Config) { c.Recognizer.Name = "siri" },
			wantSub: "recognizer.name",
		},
		{
			name:    "threshold above one",
			mutate:  func(c *config.Config) { c.Matching.AcceptThreshold = 1.5 },
			wantSub: "accept_threshold",
		},
		{
			name:    "opacity out of range",
			mutate:  func(c *config.Config) { c.HUD.Opacity = 1.2 },
			wantSub: "hud.opacity",
		},
		{
			name:    "bad hud position",
			mutate:  func(c *config.Config) { c.HUD.Position = "center" },
			wantSub: "hud.position",
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Server.LogLevel = "verbose" },
			wantSub: "log_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
			if err != nil {
				t.Fatalf("base config: %v", err)
			}
			tt.mutate(cfg)
			err = config.Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	base, err := config.LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatalf("base config: %v", err)
	}

	t.Run("no changes", func(t *testing.T) {
		t.Parallel()
		clone := *base
		d := config.Diff(base, &clone)
		if d.Any() || d.RestartRequired {
			t.Errorf("diff of identical configs = %+v", d)
		}
	})

	t.Run("wake word is hot", func(t *testing.T) {
		t.Parallel()
		clone := *base
		clone.Session.WakeWord = "okay computer"
		d := config.Diff(base, &clone)
		if !d.WakeWordChanged || d.NewWakeWord != "okay computer" {
			t.Errorf("diff = %+v, want wake word change", d)
		}
		if d.RestartRequired {
			t.Error("wake word change must not require a restart")
		}
	})

	t.Run("scroll amount and thresholds are hot", func(t *testing.T) {
		t.Parallel()
		clone := *base
		clone.Browser.ScrollAmount = 123
		clone.Matching.AcceptThreshold = 0.55
		d := config.Diff(base, &clone)
		if !d.ScrollAmountChanged || d.NewScrollAmount != 123 {
			t.Errorf("diff = %+v, want scroll amount change", d)
		}
		if !d.ThresholdsChanged {
			t.Error("want thresholds change")
		}
	})

	t.Run("backend change requires restart", func(t *testing.T) {
		t.Parallel()
		clone := *base
		clone.Browser.DevToolsURL = "ws://other:9222"
		d := config.Diff(base, &clone)
		if !d.RestartRequired {
			t.Error("devtools url change must require a restart")
		}
	})
}
