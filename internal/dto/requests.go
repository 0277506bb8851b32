package dto

import "wildwatch/internal/service/pipeline"

// RegisterTokenRequest is the body of POST /register-token.
type RegisterTokenRequest struct {
	Token string `json:"token"`
}

// WatchlistRequest is the body of POST /unwanted.
type WatchlistRequest struct {
	Animal string `json:"animal"`
}

// MessageResponse acknowledges a successful write.
type MessageResponse struct {
	Message string `json:"message"`
}

// WatchlistResponse carries the watchlist after a read or write. Unwanted
// repeats Watchlist under the key older dashboards read.
type WatchlistResponse struct {
	Message   string   `json:"message"`
	Watchlist []string `json:"watchlist"`
	Unwanted  []string `json:"unwanted"`
}

// NewWatchlistResponse builds a WatchlistResponse for names.
func NewWatchlistResponse(message string, names []string) WatchlistResponse {
	if names == nil {
		names = []string{}
	}
	return WatchlistResponse{Message: message, Watchlist: names, Unwanted: names}
}

// ErrorResponse is returned with every 4xx/5xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Pipeline pipeline.Stats `json:"pipeline"`
	Viewers  int            `json:"viewers"`
	Sinks    []string       `json:"sinks"`
	Uptime   string         `json:"uptime"`
}
