package handler

import (
	"net/http"
	"time"

	"wildwatch/internal/dto"
	"wildwatch/internal/service/pipeline"
)

// StatsSource exposes pipeline counters.
type StatsSource interface {
	Stats() pipeline.Stats
}

// ViewerCounter reports connected live viewers.
type ViewerCounter interface {
	ClientCount() int
}

// StatusHandler handles GET /status.
func StatusHandler(stats StatsSource, viewers ViewerCounter, sinks []string, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.StatusResponse{
			Pipeline: stats.Stats(),
			Viewers:  viewers.ClientCount(),
			Sinks:    sinks,
			Uptime:   time.Since(started).Truncate(time.Second).String(),
		})
	}
}

// HealthHandler handles GET /health.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("OK"))
}
