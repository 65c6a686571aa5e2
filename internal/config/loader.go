package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidRecognizerNames lists known recognizer backend names.
var ValidRecognizerNames = []string{"deepgram"}

// ValidSpeechNames lists known speech synthesizer names.
var ValidSpeechNames = []string{"espeak", "none", ""}

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Browser.DevToolsURL == "" {
		errs = append(errs, errors.New("browser.devtools_url must be set (start the browser with --remote-debugging-port)"))
	}
	if cfg.Browser.ScrollAmount <= 0 {
		errs = append(errs, fmt.Errorf("browser.scroll_amount must be positive, got %d", cfg.Browser.ScrollAmount))
	}

	if !slices.Contains(ValidRecognizerNames, cfg.Recognizer.Name) {
		errs = append(errs, fmt.Errorf("recognizer.name %q is unknown; valid values: %v", cfg.Recognizer.Name, ValidRecognizerNames))
	}
	if !slices.Contains(ValidSpeechNames, cfg.Speech.Name) {
		errs = append(errs, fmt.Errorf("speech.name %q is unknown; valid values: espeak, none", cfg.Speech.Name))
	}

	if cfg.Session.WakeWord == "" {
		errs = append(errs, errors.New("session.wake_word must not be empty"))
	}

	if t := cfg.Matching.AcceptThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("matching.accept_threshold must be in (0, 1], got %v", t))
	}
	if t := cfg.Matching.DictationExitThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("matching.dictation_exit_threshold must be in (0, 1], got %v", t))
	}

	if !cfg.HUD.Position.IsValid() {
		errs = append(errs, fmt.Errorf("hud.position %q is invalid; valid values: top-left, top-right, bottom-left, bottom-right", cfg.HUD.Position))
	}
	if o := cfg.HUD.Opacity; o < 0 || o > 1 {
		errs = append(errs, fmt.Errorf("hud.opacity must be in [0, 1], got %v", o))
	}

	return errors.Join(errs...)
}
