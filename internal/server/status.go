package server

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// handleStatus reports uptime and host resource usage so the dashboard
// can tell whether the box is struggling under a local model.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"ok":         true,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		status["mem_used_percent"] = vm.UsedPercent
		status["mem_total_mb"] = vm.Total / 1024 / 1024
	}
	if counts, err := cpu.Counts(true); err == nil {
		status["cpu_count"] = counts
	}

	writeJSON(w, http.StatusOK, status)
}
