package repository

import (
	"context"
	"time"

	"wildwatch/internal/model"
)

// EventRepository is the append-only detection log.
type EventRepository interface {
	InsertEvent(ctx context.Context, ts time.Time, label, imagePath string) (int64, error)
	ListRecentEvents(ctx context.Context, limit int) ([]model.Event, error)
	ListEventsByLabel(ctx context.Context, label string, limit int) ([]model.Event, error)
}

// WatchlistRepository holds the labels that trigger the local alert.
type WatchlistRepository interface {
	// AddWatchlistEntry inserts the name if absent and returns the updated watchlist.
	AddWatchlistEntry(ctx context.Context, name string) ([]string, error)
	RemoveWatchlistEntry(ctx context.Context, name string) ([]string, error)
	ListWatchlist(ctx context.Context) ([]string, error)
	IsWatchlisted(ctx context.Context, name string) (bool, error)
}

// EndpointRepository holds push-notification registration tokens.
type EndpointRepository interface {
	RegisterEndpoint(ctx context.Context, token string) error
	RemoveEndpoints(ctx context.Context, tokens ...string) (int64, error)
	ListEndpoints(ctx context.Context) ([]string, error)
}

// EventStore owns every durable row. All operations are individually atomic.
type EventStore interface {
	EventRepository
	WatchlistRepository
	EndpointRepository
	Close() error
}
