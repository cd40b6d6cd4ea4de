package handlers

import (
	"errors"
	"net/http"
	"runtime"
	"time"

	"webm2mp4/internal/logging"
	"webm2mp4/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

var errMemoryPressure = errors.New("memory pressure")

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Reason  string `json:"reason,omitempty"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	FFmpegAvailable   bool `json:"ffmpegAvailable"`
	ActiveConversions int  `json:"activeConversions"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	readyErr := h.readinessError()

	response := HealthResponse{
		Status:            statusHealthy,
		Ready:             readyErr == nil,
		Version:           startup.Version,
		Uptime:            time.Since(h.startTime).Round(time.Second).String(),
		FFmpegAvailable:   h.ffmpegAvailable,
		ActiveConversions: h.transcoder.Active(),
		GoVersion:         runtime.Version(),
		NumCPU:            runtime.NumCPU(),
		NumGoroutine:      runtime.NumGoroutine(),
	}

	if readyErr != nil {
		response.Reason = readyErr.Error()
	}
	if readyErr != nil || !h.ffmpegAvailable {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if not ready at all
	if readyErr != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness check (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when both temporary directories accept
// new files and the process is not under memory pressure.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if err := h.readinessError(); err != nil {
		logging.Warn("Readiness check failed: %v", err)
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": err.Error(),
		})
		return
	}

	writeJSONStatus(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (h *Handlers) readinessError() error {
	if err := h.workspace.Writable(); err != nil {
		return err
	}
	if h.memory != nil && h.memory.UnderPressure() {
		return errMemoryPressure
	}
	return nil
}
