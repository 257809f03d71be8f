package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/healthhive/server/internal/metrics"
)

// Pinger is satisfied by every storage.Repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MigrationStatus reports the applied schema version. Stores without a
// schema pass nil to NewHealthChecker.
type MigrationStatus func(ctx context.Context) (version uint, dirty bool, err error)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Driver    string                 `json:"driver"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

type HealthChecker struct {
	store      Pinger
	migrations MigrationStatus
	driver     string
	version    string
	gitCommit  string
	now        func() time.Time
}

func NewHealthChecker(store Pinger, migrations MigrationStatus, driver, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		store:      store,
		migrations: migrations,
		driver:     driver,
		version:    version,
		gitCommit:  gitCommit,
		now:        time.Now,
	}
}

// Health runs every check and answers 503 when any of them fails.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"store": h.checkStore(ctx),
		}
		if h.migrations != nil {
			checks["migrations"] = h.checkMigrations(ctx)
		}

		overall, status := "healthy", http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				overall, status = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}

		writeJSON(w, status, HealthCheck{
			Status:    overall,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Driver:    h.driver,
			Checks:    checks,
			Timestamp: h.now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) checkStore(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := h.now()
	err := h.store.Ping(ctx)
	latency := h.now().Sub(start).Milliseconds()
	if err != nil {
		message := "store ping failed"
		if ctx.Err() == context.DeadlineExceeded {
			message = "store ping timed out after 2 seconds"
		}
		return CheckResult{
			Status:    "fail",
			Message:   message,
			LatencyMs: latency,
			Details:   map[string]any{"error": err.Error()},
		}
	}
	return CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("%s store reachable", h.driver),
		LatencyMs: latency,
	}
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	version, dirty, err := h.migrations(ctx)
	if err != nil {
		return CheckResult{
			Status:  "fail",
			Message: "failed to read migration version",
			Details: map[string]any{
				"error":       err.Error(),
				"remediation": "run: server migrate up",
			},
		}
	}
	if dirty {
		return CheckResult{
			Status:  "fail",
			Message: "database in dirty migration state - manual intervention required",
			Details: map[string]any{"version": version, "dirty": true},
		}
	}
	return CheckResult{
		Status:  "pass",
		Message: fmt.Sprintf("migrations applied (version %d)", version),
		Details: map[string]any{"version": version, "dirty": false},
	}
}

// Healthz is the liveness probe; it never touches the store.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

// Readyz answers 503 until the store responds to a ping.
func Readyz(store Pinger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			respondHealth(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			metrics.StoreReady.Set(0)
			respondHealth(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		metrics.StoreReady.Set(1)
		respondHealth(w, http.StatusOK, "ready")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
