// Package config provides the configuration schema, loader, and hot-reload
// watcher for the voxnav voice browser-control daemon.
package config

import (
	"github.com/MrWong99/voxnav/internal/command"
	"github.com/MrWong99/voxnav/internal/hud"
)

// LogLevel controls log verbosity for the voxnav daemon.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Default values applied by ApplyDefaults for fields left empty.
const (
	DefaultWakeWord     = "hey browser"
	DefaultLanguage     = "en-US"
	DefaultScrollAmount = 400
	DefaultHUDOpacity   = 0.8
)

// Config is the root configuration structure for voxnav.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Browser    BrowserConfig    `yaml:"browser"`
	Recognizer RecognizerConfig `yaml:"recognizer"`
	Speech     SpeechConfig     `yaml:"speech"`
	Session    SessionConfig    `yaml:"session"`
	Matching   MatchingConfig   `yaml:"matching"`
	HUD        HUDConfig        `yaml:"hud"`
}

// ServerConfig holds observability and logging settings for the daemon.
type ServerConfig struct {
	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., ":9090"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// BrowserConfig holds the connection to the controlled browser.
type BrowserConfig struct {
	// DevToolsURL is the DevTools WebSocket endpoint of a browser started
	// with --remote-debugging-port (e.g., "ws://127.0.0.1:9222").
	DevToolsURL string `yaml:"devtools_url"`

	// ScrollAmount is the pixel distance of one "scroll up"/"scroll down"
	// step. Must be positive; defaults to 400.
	ScrollAmount int `yaml:"scroll_amount"`
}

// RecognizerConfig selects and configures the speech-recognition backend.
type RecognizerConfig struct {
	// Name selects the backend implementation (currently "deepgram").
	Name string `yaml:"name"`

	// APIKey authenticates against the backend. May also come from the
	// environment (DEEPGRAM_API_KEY); the config value wins when both are set.
	APIKey string `yaml:"api_key"`

	// Model selects a backend-specific model (e.g., "nova-3").
	Model string `yaml:"model"`

	// Language is the BCP-47 recognition language tag (e.g., "en-US").
	Language string `yaml:"language"`
}

// SpeechConfig selects and configures spoken feedback.
type SpeechConfig struct {
	// Name selects the synthesizer ("espeak", or "none" to disable spoken
	// announcements).
	Name string `yaml:"name"`

	// Voice is the synthesizer voice/language (e.g., "en-us").
	Voice string `yaml:"voice"`

	// Binary overrides the synthesizer binary path.
	Binary string `yaml:"binary"`
}

// SessionConfig holds the wake-word gate settings.
type SessionConfig struct {
	// WakeWord activates command handling when heard in a transcript.
	// Hot-reloadable: changing it mid-session never restarts recognition.
	WakeWord string `yaml:"wake_word"`
}

// MatchingConfig holds the fuzzy-matching decision thresholds.
// Zero values fall back to the command package defaults.
type MatchingConfig struct {
	// AcceptThreshold is the minimum similarity score for executing a
	// matched command. Default: 0.6.
	AcceptThreshold float64 `yaml:"accept_threshold"`

	// DictationExitThreshold is the minimum similarity score for treating a
	// dictation-mode utterance as a mode-exit phrase. Default: 0.8.
	DictationExitThreshold float64 `yaml:"dictation_exit_threshold"`
}

// HUDConfig holds the visual status-overlay settings. The overlay itself is
// rendered by an external collaborator; the core only validates and forwards
// these values.
type HUDConfig struct {
	// Position anchors the HUD in a viewport corner. Default: bottom-right.
	Position hud.Position `yaml:"position"`

	// Opacity is the overlay opacity in [0, 1]. Default: 0.8.
	Opacity float64 `yaml:"opacity"`
}

// ApplyDefaults fills empty fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Browser.ScrollAmount == 0 {
		c.Browser.ScrollAmount = DefaultScrollAmount
	}
	if c.Recognizer.Language == "" {
		c.Recognizer.Language = DefaultLanguage
	}
	if c.Session.WakeWord == "" {
		c.Session.WakeWord = DefaultWakeWord
	}
	if c.Matching.AcceptThreshold == 0 {
		c.Matching.AcceptThreshold = command.DefaultAcceptThreshold
	}
	if c.Matching.DictationExitThreshold == 0 {
		c.Matching.DictationExitThreshold = command.DefaultDictationExitThreshold
	}
	if c.HUD.Position == "" {
		c.HUD.Position = hud.PositionBottomRight
	}
	if c.HUD.Opacity == 0 {
		c.HUD.Opacity = DefaultHUDOpacity
	}
}
