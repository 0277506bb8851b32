package sqlite

import (
	"context"
	"fmt"

	"wildwatch/internal/model"
)

// WatchlistRepository implements repository.WatchlistRepository for SQLite.
type WatchlistRepository struct {
	db *DB
}

// NewWatchlistRepository creates a new SQLite watchlist repository.
func NewWatchlistRepository(db *DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// AddWatchlistEntry inserts name if absent and returns the watchlist after the write.
func (r *WatchlistRepository) AddWatchlistEntry(ctx context.Context, name string) ([]string, error) {
	name, err := model.NormalizeLabel(name)
	if err != nil {
		return nil, err
	}

	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().ExecContext(ctx,
		`INSERT OR IGNORE INTO watchlist (animal_name) VALUES (?)`, name); err != nil {
		return nil, fmt.Errorf("%w: failed to add %s to watchlist: %w", model.ErrStorage, name, err)
	}
	return r.list(ctx)
}

// RemoveWatchlistEntry deletes name if present and returns the watchlist after the write.
func (r *WatchlistRepository) RemoveWatchlistEntry(ctx context.Context, name string) ([]string, error) {
	name, err := model.NormalizeLabel(name)
	if err != nil {
		return nil, err
	}

	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().ExecContext(ctx,
		`DELETE FROM watchlist WHERE animal_name = ?`, name); err != nil {
		return nil, fmt.Errorf("%w: failed to remove %s from watchlist: %w", model.ErrStorage, name, err)
	}
	return r.list(ctx)
}

// ListWatchlist returns all watchlisted names in alphabetical order.
func (r *WatchlistRepository) ListWatchlist(ctx context.Context) ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return r.list(ctx)
}

// IsWatchlisted reports whether label is currently on the watchlist.
func (r *WatchlistRepository) IsWatchlisted(ctx context.Context, label string) (bool, error) {
	label, err := model.NormalizeLabel(label)
	if err != nil {
		return false, nil
	}

	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM watchlist WHERE animal_name = ?`, label).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: failed to check watchlist: %w", model.ErrStorage, err)
	}
	return count > 0, nil
}

// list must be called with the lock held.
func (r *WatchlistRepository) list(ctx context.Context) ([]string, error) {
	rows, err := r.db.Conn().QueryContext(ctx, `SELECT animal_name FROM watchlist ORDER BY animal_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query watchlist: %w", model.ErrStorage, err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: failed to scan watchlist entry: %w", model.ErrStorage, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate watchlist: %w", model.ErrStorage, err)
	}
	return names, nil
}
