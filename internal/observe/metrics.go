// Package observe provides application-wide observability primitives for
// voxnav: OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API and scraped via
// the standard /metrics endpoint (see [InitProvider]). Tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxnav metrics.
const meterName = "github.com/MrWong99/voxnav"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// Transcripts counts final transcripts consumed by the session. Use with
	// attribute.String("state", "idle"|"active") to split wake-word gating.
	Transcripts metric.Int64Counter

	// CommandDecisions counts matcher outcomes. Use with attributes:
	//   attribute.String("decision", ...), attribute.String("action", ...)
	CommandDecisions metric.Int64Counter

	// MatchScore tracks the best similarity score per matched transcript.
	MatchScore metric.Float64Histogram

	// ActionDuration tracks action execution latency. Use with attributes:
	//   attribute.String("action", ...), attribute.String("status", ...)
	ActionDuration metric.Float64Histogram

	// RegistryRebuildDuration tracks full page-scan latency.
	RegistryRebuildDuration metric.Float64Histogram

	// RegistryEntries tracks the entry count produced by each rebuild.
	RegistryEntries metric.Int64Histogram

	// RecognizerRestarts counts automatic recognition-stream restarts.
	RecognizerRestarts metric.Int64Counter

	// RecognizerFaults counts recognizer faults. Use with attribute:
	//   attribute.String("code", ...)
	RecognizerFaults metric.Int64Counter

	// ActiveSessions tracks the number of live voice sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// in-page action and scan latencies.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// scoreBuckets covers the [0, 1] similarity range around the decision
// thresholds.
var scoreBuckets = []float64{
	0.2, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Transcripts, err = m.Int64Counter("voxnav.transcripts",
		metric.WithDescription("Final transcripts consumed by the session."),
	); err != nil {
		return nil, err
	}
	if met.CommandDecisions, err = m.Int64Counter("voxnav.command.decisions",
		metric.WithDescription("Command matcher outcomes by decision and action."),
	); err != nil {
		return nil, err
	}
	if met.MatchScore, err = m.Float64Histogram("voxnav.command.match_score",
		metric.WithDescription("Best similarity score per transcript."),
		metric.WithExplicitBucketBoundaries(scoreBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActionDuration, err = m.Float64Histogram("voxnav.action.duration",
		metric.WithDescription("Action execution latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RegistryRebuildDuration, err = m.Float64Histogram("voxnav.registry.rebuild_duration",
		metric.WithDescription("Full page-scan latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RegistryEntries, err = m.Int64Histogram("voxnav.registry.entries",
		metric.WithDescription("Entry count per registry rebuild."),
	); err != nil {
		return nil, err
	}
	if met.RecognizerRestarts, err = m.Int64Counter("voxnav.recognizer.restarts",
		metric.WithDescription("Automatic recognition-stream restarts."),
	); err != nil {
		return nil, err
	}
	if met.RecognizerFaults, err = m.Int64Counter("voxnav.recognizer.faults",
		metric.WithDescription("Recognizer faults by code."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxnav.sessions.active",
		metric.WithDescription("Live voice sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}
