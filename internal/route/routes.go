package route

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"wildwatch/internal/handler"
	"wildwatch/internal/logger"
	"wildwatch/internal/middleware"
	"wildwatch/internal/repository"
	"wildwatch/internal/service/notify"
	"wildwatch/internal/service/storage"
)

// Dependencies are the components the admin API reads and writes.
type Dependencies struct {
	Store       repository.EventStore
	Snapshots   *storage.SnapshotStore
	Hub         *notify.Hub
	Stats       handler.StatsSource
	Sinks       []string
	EventsLimit int
	Started     time.Time
	Logger      *logger.Logger
}

// SetupRoutes registers the admin API and wraps it with CORS and request logging.
func SetupRoutes(deps Dependencies) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.CORS)

	// Notification endpoints
	router.HandleFunc("/register-token", handler.RegisterTokenHandler(deps.Store, deps.Logger)).Methods("POST", "OPTIONS")

	// Events
	router.HandleFunc("/events", handler.ListEventsHandler(deps.Store, deps.EventsLimit, deps.Logger)).Methods("GET")
	router.HandleFunc("/unknown", handler.ListUnknownEventsHandler(deps.Store, deps.EventsLimit, deps.Logger)).Methods("GET")
	router.HandleFunc("/snapshots/{name}", handler.ViewSnapshotHandler(deps.Snapshots)).Methods("GET")

	// Watchlist
	router.HandleFunc("/unwanted", handler.ListWatchlistHandler(deps.Store, deps.Logger)).Methods("GET")
	router.HandleFunc("/unwanted", handler.AddWatchlistHandler(deps.Store, deps.Logger)).Methods("POST", "OPTIONS")
	router.HandleFunc("/unwanted/{animal}", handler.RemoveWatchlistHandler(deps.Store, deps.Logger)).Methods("DELETE", "OPTIONS")

	// Live feed
	router.HandleFunc("/ws", handler.LiveEventsHandler(deps.Hub, deps.Logger)).Methods("GET")

	// Status and logs
	router.HandleFunc("/status", handler.StatusHandler(deps.Stats, deps.Hub, deps.Sinks, deps.Started)).Methods("GET")
	router.HandleFunc("/health", handler.HealthHandler).Methods("GET")
	router.HandleFunc("/logs/{level}", handler.ShowLogsHandler(deps.Logger)).Methods("GET")
	router.HandleFunc("/logs/{level}/clear", handler.ClearLogsHandler(deps.Logger)).Methods("POST")

	return router
}
