package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/zoneshadow/internal/process"
)

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status        string        `json:"status"`
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	MQTTConnected bool          `json:"mqtt_connected"`
	Supervisor    *process.Info `json:"supervisor,omitempty"`
}

// Health states.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// handleHealth reports "ok" while the broker session is up and the
// controller is running, "degraded" (503) otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:        healthOK,
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	}

	if s.connected != nil {
		resp.MQTTConnected = s.connected()
	}
	if !resp.MQTTConnected {
		resp.Status = healthDegraded
	}

	if s.supervisor != nil {
		info := s.supervisor.Info()
		resp.Supervisor = &info
		if info.Status != process.StatusRunning {
			resp.Status = healthDegraded
		}
	}

	status := http.StatusOK
	if resp.Status != healthOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
