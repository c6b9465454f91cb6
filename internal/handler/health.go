package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coursemind/coursemind/internal/models"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

// Pinger is implemented by backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health with dependency checks.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler takes named dependency checkers; a nil Pinger is
// reported as disabled.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Health handles GET /health. Dependencies are pinged concurrently
// under one short timeout so a slow backend cannot stall the probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	degraded := false

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for name, dep := range h.deps {
		if dep == nil {
			checks[name] = "disabled"
			continue
		}
		g.Go(func() error {
			err := dep.Ping(gctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[name] = "unavailable: " + err.Error()
				degraded = true
			} else {
				checks[name] = "ok"
			}
			return nil
		})
	}
	_ = g.Wait()

	status := "healthy"
	statusCode := http.StatusOK
	if degraded {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  status,
		Version: version,
		Checks:  checks,
	})
}
