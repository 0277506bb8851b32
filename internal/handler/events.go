package handler

import (
	"net/http"
	"strconv"

	"wildwatch/internal/dto"
	"wildwatch/internal/logger"
	"wildwatch/internal/model"
	"wildwatch/internal/repository"
)

// ListEventsHandler handles GET /events: newest first, at most maxLimit.
// ?limit narrows the page further.
func ListEventsHandler(events repository.EventRepository, maxLimit int, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := limitParam(r, maxLimit)

		list, err := events.ListRecentEvents(r.Context(), limit)
		if err != nil {
			writeStoreError(w, logger, "Listing events", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewEventInfos(list))
	}
}

// ListUnknownEventsHandler handles GET /unknown: events the classifier could
// not label confidently.
func ListUnknownEventsHandler(events repository.EventRepository, maxLimit int, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := limitParam(r, maxLimit)

		list, err := events.ListEventsByLabel(r.Context(), model.UnknownLabel, limit)
		if err != nil {
			writeStoreError(w, logger, "Listing unknown events", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewEventInfos(list))
	}
}

// limitParam parses ?limit, falling back to max for missing or bad values.
func limitParam(r *http.Request, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || v <= 0 || v > max {
		return max
	}
	return v
}
