package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/ctxlog"

	"github.com/clipline/clipline/pkg/domain/model"
	"github.com/clipline/clipline/pkg/domain/types"
)

var startedAt = time.Now()

// handleHealth handles health check requests
func handleHealth(w http.ResponseWriter, r *http.Request) {
	status := &model.HealthStatus{
		Status:    "healthy",
		Service:   "clipline",
		Version:   types.Version,
		UptimeSec: int64(time.Since(startedAt).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
	}
}
