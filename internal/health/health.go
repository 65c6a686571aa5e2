// Package health provides HTTP liveness and readiness handlers for the
// voxnav daemon.
//
//   - /healthz — liveness probe; returns 200 whenever the process serves
//     HTTP, and reports whether the voice session is currently listening.
//   - /readyz  — readiness probe; returns 200 only when every registered
//     [Checker] (browser connection, recognizer backend) passes.
//
// Responses are JSON objects with a top-level "status" field ("ok" or
// "fail") and a "checks" map with each named probe result.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named dependency probe. Check must return nil when the
// dependency is usable and respect context cancellation.
type Checker struct {
	// Name labels the probe in the JSON response (e.g. "browser").
	Name string

	// Check probes the dependency.
	Check func(ctx context.Context) error
}

// result is the JSON response body for both endpoints.
type result struct {
	Status    string            `json:"status"`
	Listening bool              `json:"listening"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Handler serves the health endpoints. Safe for concurrent use; the checker
// list is fixed at construction time.
type Handler struct {
	listening func() bool
	checkers  []Checker
}

// New creates a Handler. listening reports whether the voice session is
// consuming a recognition stream and may be nil; checkers are evaluated in
// order on each /readyz request.
func New(listening func() bool, checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	if listening == nil {
		listening = func() bool { return false }
	}
	return &Handler{listening: listening, checkers: c}
}

// Healthz is the liveness probe. A process that can serve HTTP is alive.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok", Listening: h.listening()})
}

// Readyz is the readiness probe: 200 only when every checker passes. Each
// check runs with a checkTimeout deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.checkers))
	allOK := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := result{Status: "ok", Listening: h.listening(), Checks: checks}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v with the given status code, falling back to a
// plain-text 500 on encoding failure.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
