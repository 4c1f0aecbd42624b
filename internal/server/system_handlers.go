package server

import (
	"net/http"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// handleSystemStatus handles system status requests: process and host
// resource usage, database location and scheduler state
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := map[string]interface{}{
		"status": "running",
		"runtime": map[string]interface{}{
			"alloc_mb":   m.Alloc / 1024 / 1024,
			"sys_mb":     m.Sys / 1024 / 1024,
			"num_gc":     m.NumGC,
			"goroutines": runtime.NumGoroutine(),
		},
		"database": map[string]interface{}{
			"path": s.db.Path(),
		},
		"scheduler": map[string]interface{}{
			"jobs":     s.scheduler.EntryCount(),
			"next_run": s.scheduler.NextRun(),
		},
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil {
			response["process"] = map[string]interface{}{
				"rss_mb": memInfo.RSS / 1024 / 1024,
				"vms_mb": memInfo.VMS / 1024 / 1024,
			}
		}
	}

	host := map[string]interface{}{}
	if vm, err := mem.VirtualMemory(); err == nil {
		host["memory_total_mb"] = vm.Total / 1024 / 1024
		host["memory_used_pct"] = vm.UsedPercent
	}
	if count, err := cpu.Counts(true); err == nil {
		host["cpu_count"] = count
	}
	if len(host) > 0 {
		response["host"] = host
	}

	s.writeJSON(w, http.StatusOK, response)
}
