// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/olegiv/companion/internal/middleware"
	"github.com/olegiv/companion/internal/version"
)

// Check states, from best to worst.
const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

const (
	// lowDiskThreshold marks the uploads volume as degraded.
	lowDiskThreshold = 100 << 20
	pingTimeout      = 2 * time.Second
)

// HealthHandler serves the uptime-monitor endpoints.
type HealthHandler struct {
	db         *sql.DB
	uploadsDir string
	started    time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, uploadsDir string) *HealthHandler {
	return &HealthHandler{db: db, uploadsDir: uploadsDir, started: time.Now()}
}

// HealthStatus is the detailed report shown to admins.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check is the outcome of one probe.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo is included with ?verbose=true.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

// Health handles GET /health. Visitors only learn the overall state; admins
// see each check. A dead database answers 503 so monitors alert.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]Check{
		"database": h.pingDatabase(r.Context()),
		"disk":     h.uploadsVolume(),
	}

	overall := healthHealthy
	for _, c := range checks {
		if c.Status != healthHealthy {
			overall = healthDegraded
		}
	}
	code := http.StatusOK
	if checks["database"].Status == healthUnhealthy {
		code = http.StatusServiceUnavailable
	}

	if !middleware.GetViewer(r).IsAdmin() {
		writeHealthJSON(w, code, map[string]string{"status": overall})
		return
	}

	report := HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   version.Current().String(),
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		report.System = readSystemInfo()
	}
	writeHealthJSON(w, code, report)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready: ready means the database answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	db := h.pingDatabase(r.Context())
	if db.Status == healthHealthy {
		writeHealthJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	body := map[string]string{"status": "not_ready"}
	if middleware.GetViewer(r).IsAdmin() {
		body["message"] = db.Message
	}
	writeHealthJSON(w, http.StatusServiceUnavailable, body)
}

func (h *HealthHandler) pingDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	c := Check{Status: healthHealthy, Message: "Connected", Latency: time.Since(start).String()}
	if err != nil {
		c.Status, c.Message = healthUnhealthy, err.Error()
	}
	return c
}

// uploadsVolume reports free space where uploads are stored. A missing
// directory is fine; it is created on the first upload.
func (h *HealthHandler) uploadsVolume() Check {
	if _, err := os.Stat(h.uploadsDir); errors.Is(err, fs.ErrNotExist) {
		return Check{Status: healthHealthy, Message: "Uploads directory does not exist yet"}
	}

	var st syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &st); err != nil {
		return Check{Status: healthUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}

	free := st.Bavail * uint64(st.Bsize)
	if free < lowDiskThreshold {
		return Check{Status: healthDegraded, Message: "Low disk space: " + formatBytes(free) + " available"}
	}
	return Check{Status: healthHealthy, Message: formatBytes(free) + " available"}
}

func readSystemInfo() *SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(mem.Alloc),
		MemSys:       formatBytes(mem.Sys),
	}
}

func writeHealthJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, v)
}

// formatBytes renders n with a binary unit, e.g. "5.00 MB".
func formatBytes(n uint64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	units := []string{"KB", "MB", "GB", "TB"}
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}
