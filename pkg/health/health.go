package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const checkTimeout = 5 * time.Second

// Checker probes one dependency and reports an error when it is unhealthy.
type Checker func(ctx context.Context) error

// Status of a component or of the whole service.
type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Response is the body of both health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult reports one dependency probe.
type CheckResult struct {
	Status   Status `json:"status"`
	Critical bool   `json:"critical"`
	Error    string `json:"error,omitempty"`
}

type probe struct {
	check    Checker
	critical bool
}

// Handler serves liveness and readiness endpoints over a set of registered
// dependency probes.
type Handler struct {
	mu     sync.RWMutex
	probes map[string]probe
}

func NewHandler() *Handler {
	return &Handler{probes: make(map[string]probe)}
}

// Register is shorthand for RegisterCritical.
func (h *Handler) Register(name string, check Checker) {
	h.RegisterCritical(name, check)
}

// RegisterCritical adds a probe whose failure makes readiness return 503.
// Registering the same name again replaces the earlier probe.
func (h *Handler) RegisterCritical(name string, check Checker) {
	h.add(name, probe{check: check, critical: true})
}

// RegisterNonCritical adds a probe whose failure only degrades the service.
// Readiness stays 200 with overall status "degraded".
func (h *Handler) RegisterNonCritical(name string, check Checker) {
	h.add(name, probe{check: check, critical: false})
}

func (h *Handler) add(name string, p probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = p
}

func (h *Handler) snapshot() map[string]probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]probe, len(h.probes))
	for name, p := range h.probes {
		out[name] = p
	}
	return out
}

// LivenessHandler reports whether the process is running. It never consults
// the probes.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, Response{
			Status:    StatusUp,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler runs every registered probe. Any critical failure makes
// the whole response 503/down; non-critical failures degrade it.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		overall := StatusUp
		checks := map[string]CheckResult{}
		for name, p := range h.snapshot() {
			result := CheckResult{Status: StatusUp, Critical: p.critical}
			if err := p.check(ctx); err != nil {
				result.Status = StatusDown
				result.Error = err.Error()
				switch {
				case p.critical:
					overall = StatusDown
				case overall == StatusUp:
					overall = StatusDegraded
				}
			}
			checks[name] = result
		}

		status := http.StatusOK
		if overall == StatusDown {
			status = http.StatusServiceUnavailable
		}
		writeHealth(w, status, Response{
			Status:    overall,
			Timestamp: time.Now().UTC(),
			Checks:    checks,
		})
	}
}

func writeHealth(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
