package handlers

import (
	"net/http"
	"time"
)

// ReadinessCheck probes one dependency and returns its failure, if any.
type ReadinessCheck func() error

// HealthHandlers serves the liveness and readiness endpoints.
type HealthHandlers struct {
	version   string
	startedAt time.Time
	now       func() time.Time
	checks    map[string]ReadinessCheck
}

// HealthOption customises the health handlers.
type HealthOption func(*HealthHandlers)

// WithHealthVersion sets the version string reported by /healthz.
func WithHealthVersion(version string) HealthOption {
	return func(h *HealthHandlers) {
		h.version = version
	}
}

// WithHealthClock overrides the clock, for tests.
func WithHealthClock(now func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		if now != nil {
			h.now = now
		}
	}
}

// WithReadinessCheck registers a named dependency probe evaluated by /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		if name == "" || check == nil {
			return
		}
		h.checks[name] = check
	}
}

// NewHealthHandlers constructs the health endpoints.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		now:    time.Now,
		checks: make(map[string]ReadinessCheck),
	}
	h.startedAt = h.now()
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Healthz reports liveness with uptime and build information.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.version != "" {
		payload["version"] = h.version
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz runs the registered dependency probes and reports per-check status.
// Any failed probe degrades the response to 503.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]any, len(h.checks))
	for name, check := range h.checks {
		if err := check(); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			checks[name] = map[string]any{"status": "failed", "error": err.Error()}
			continue
		}
		checks[name] = map[string]any{"status": "ok"}
	}

	payload := map[string]any{
		"status":    status,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}
	if len(checks) > 0 {
		payload["checks"] = checks
	}
	writeJSONResponse(w, httpStatus, payload)
}
