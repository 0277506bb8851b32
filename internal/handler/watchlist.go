package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"wildwatch/internal/dto"
	"wildwatch/internal/logger"
	"wildwatch/internal/repository"
)

// ListWatchlistHandler handles GET /unwanted.
func ListWatchlistHandler(watchlist repository.WatchlistRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := watchlist.ListWatchlist(r.Context())
		if err != nil {
			writeStoreError(w, logger, "Listing watchlist", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewWatchlistResponse("ok", names))
	}
}

// AddWatchlistHandler handles POST /unwanted {"animal": "..."}. Adding an
// existing name succeeds without a duplicate row.
func AddWatchlistHandler(watchlist repository.WatchlistRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.WatchlistRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid animal")
			return
		}

		names, err := watchlist.AddWatchlistEntry(r.Context(), req.Animal)
		if err != nil {
			writeStoreError(w, logger, "Adding to watchlist", err)
			return
		}
		logger.Info("Watchlist: added %s", req.Animal)
		writeJSON(w, http.StatusOK, dto.NewWatchlistResponse("ok", names))
	}
}

// RemoveWatchlistHandler handles DELETE /unwanted/{animal}.
func RemoveWatchlistHandler(watchlist repository.WatchlistRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		animal := mux.Vars(r)["animal"]

		names, err := watchlist.RemoveWatchlistEntry(r.Context(), animal)
		if err != nil {
			writeStoreError(w, logger, "Removing from watchlist", err)
			return
		}
		logger.Info("Watchlist: removed %s", animal)
		writeJSON(w, http.StatusOK, dto.NewWatchlistResponse("ok", names))
	}
}
