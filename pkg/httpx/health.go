package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const healthTimeout = 2 * time.Second

// Component states reported by HealthHandler.
const (
	HealthOK          = "ok"
	HealthUnreachable = "unreachable"
	HealthDisabled    = "disabled"
)

// HealthChecker is anything with a Ping: *database.Database,
// *cache.RedisClient, *events.EventBus and *storage.MinioStore.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks maps a component name to its checker. A nil checker is
// reported as disabled and does not degrade the status.
type HealthChecks map[string]HealthChecker

// HealthReport is the /health response body.
type HealthReport struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// HealthHandler pings every component concurrently with a shared two second
// deadline. It answers 200 when all enabled components respond and 503
// with status "degraded" otherwise.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		report := HealthReport{Status: HealthOK, Components: make(map[string]string, len(checks))}
		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		for name, c := range checks {
			if c == nil {
				report.Components[name] = HealthDisabled
				continue
			}
			wg.Go(func() {
				state := HealthOK
				if err := c.Ping(ctx); err != nil {
					state = HealthUnreachable
				}
				mu.Lock()
				report.Components[name] = state
				mu.Unlock()
			})
		}
		wg.Wait()

		status := http.StatusOK
		for _, state := range report.Components {
			if state == HealthUnreachable {
				report.Status = "degraded"
				status = http.StatusServiceUnavailable
				break
			}
		}
		JSON(w, status, report)
	}
}
