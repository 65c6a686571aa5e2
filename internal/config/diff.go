package config

// ConfigDiff describes what changed between two configs. Only fields that
// can be hot-reloaded without restarting the daemon are tracked; a change to
// anything else (DevTools URL, recognizer backend) requires a restart and is
// reported through RestartRequired.
type ConfigDiff struct {
	// WakeWordChanged is true when the spoken wake word changed. The session
	// applies the new word live, without touching the recognition stream.
	WakeWordChanged bool
	NewWakeWord     string

	// LanguageChanged is true when the recognition language changed. The
	// session applies it on the next recognition stream (re)start.
	LanguageChanged bool
	NewLanguage     string

	// ScrollAmountChanged is true when the scroll step changed.
	ScrollAmountChanged bool
	NewScrollAmount     int

	// ThresholdsChanged is true when either matching threshold changed.
	ThresholdsChanged         bool
	NewAcceptThreshold        float64
	NewDictationExitThreshold float64

	// HUDChanged is true when the HUD position or opacity changed.
	HUDChanged bool

	// LogLevelChanged is true when the log verbosity changed.
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired is true when a non-hot-reloadable field changed; the
	// watcher logs a warning and keeps the old value in effect.
	RestartRequired bool
}

// Any reports whether the diff contains at least one hot-reloadable change.
func (d ConfigDiff) Any() bool {
	return d.WakeWordChanged || d.LanguageChanged || d.ScrollAmountChanged ||
		d.ThresholdsChanged || d.HUDChanged || d.LogLevelChanged || d.RestartRequired
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Session.WakeWord != new.Session.WakeWord {
		d.WakeWordChanged = true
		d.NewWakeWord = new.Session.WakeWord
	}
	if old.Recognizer.Language != new.Recognizer.Language {
		d.LanguageChanged = true
		d.NewLanguage = new.Recognizer.Language
	}
	if old.Browser.ScrollAmount != new.Browser.ScrollAmount {
		d.ScrollAmountChanged = true
		d.NewScrollAmount = new.Browser.ScrollAmount
	}
	if old.Matching != new.Matching {
		d.ThresholdsChanged = true
		d.NewAcceptThreshold = new.Matching.AcceptThreshold
		d.NewDictationExitThreshold = new.Matching.DictationExitThreshold
	}
	if old.HUD != new.HUD {
		d.HUDChanged = true
	}
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Browser.DevToolsURL != new.Browser.DevToolsURL ||
		old.Recognizer.Name != new.Recognizer.Name ||
		old.Recognizer.APIKey != new.Recognizer.APIKey ||
		old.Recognizer.Model != new.Recognizer.Model ||
		old.Speech != new.Speech ||
		old.Server.MetricsAddr != new.Server.MetricsAddr {
		d.RestartRequired = true
	}

	return d
}
