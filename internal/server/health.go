package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// Probe paths served next to the MCP endpoint.
const (
	LivenessPath       = "/healthz"
	ReadinessPath      = "/readyz"
	DetailedHealthPath = "/healthz/detailed"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// HealthChecker answers Kubernetes probes. Readiness never dials a mailbox:
// credentials only arrive with tool calls, so there is nothing to check
// upstream before the first request.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startedAt time.Time
	version   string
}

// NewHealthChecker returns a checker that starts out ready. sc may be nil.
func NewHealthChecker(sc *ServerContext, version string) *HealthChecker {
	h := &HealthChecker{sc: sc, startedAt: time.Now(), version: version}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness probe, e.g. while draining connections.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of the liveness and readiness probes.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse adds the server's mailbox limits and provider
// domains to the probe status.
type DetailedHealthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version,omitempty"`
	Uptime    string   `json:"uptime"`
	Transport string   `json:"transport,omitempty"`
	Providers []string `json:"providers,omitempty"`
	MaxCount  int      `json:"max_count,omitempty"`
}

// readiness evaluates each check and the overall status. The first failing
// check decides the status.
func (h *HealthChecker) readiness() (status string, checks map[string]string) {
	checks = map[string]string{"ready": healthStatusOK, "shutdown": healthStatusOK}
	status = healthStatusOK

	if h.sc != nil && h.sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		status = healthStatusShuttingDown
	}
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		status = healthStatusNotReady
	}
	return status, checks
}

func writeHealth(w http.ResponseWriter, status string, body any) {
	w.Header().Set("Content-Type", "application/json")
	if status == healthStatusOK {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

// LivenessHandler reports ok as long as the process serves HTTP.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, healthStatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler fails while the checker is not ready or the server
// context has shut down.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.readiness()
		if status != healthStatusOK {
			// Probes only distinguish ok from not ready; the checks say why.
			status = healthStatusNotReady
		}
		writeHealth(w, status, HealthResponse{Status: status, Checks: checks})
	})
}

func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, _ := h.readiness()
		resp := DetailedHealthResponse{
			Status:  status,
			Version: h.version,
			Uptime:  time.Since(h.startedAt).Truncate(time.Second).String(),
		}
		if h.sc != nil {
			cfg := h.sc.Config()
			resp.Transport = cfg.Server.Transport
			resp.Providers = cfg.ProviderTable().Domains()
			resp.MaxCount = h.sc.Inbox().MaxCount()
		}
		writeHealth(w, status, resp)
	})
}

// RegisterHealthEndpoints mounts the three probe handlers on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle(LivenessPath, h.LivenessHandler())
	mux.Handle(ReadinessPath, h.ReadinessHandler())
	mux.Handle(DetailedHealthPath, h.DetailedHealthHandler())
}
