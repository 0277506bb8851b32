package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wildwatch/internal/model"
)

// MaxEventsLimit caps every event listing.
const MaxEventsLimit = 50

// EventRepository implements repository.EventRepository for SQLite.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// InsertEvent appends an event and returns its id. The timestamp is stored with
// second resolution.
func (r *EventRepository) InsertEvent(ctx context.Context, ts time.Time, label, imagePath string) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO events (timestamp, detected_object, image_path)
		VALUES (?, ?, ?)
	`, ts.Format(model.TimestampLayout), label, imagePath)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert event: %w", model.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read event id: %w", model.ErrStorage, err)
	}
	return id, nil
}

// ListRecentEvents returns the newest events first, at most MaxEventsLimit.
func (r *EventRepository) ListRecentEvents(ctx context.Context, limit int) ([]model.Event, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, timestamp, detected_object, image_path
		FROM events ORDER BY timestamp DESC, id DESC LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query events: %w", model.ErrStorage, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListEventsByLabel returns the newest events carrying label.
func (r *EventRepository) ListEventsByLabel(ctx context.Context, label string, limit int) ([]model.Event, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, timestamp, detected_object, image_path
		FROM events WHERE detected_object = ?
		ORDER BY timestamp DESC, id DESC LIMIT ?
	`, label, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query events: %w", model.ErrStorage, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]model.Event, error) {
	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		var ts string
		if err := rows.Scan(&ev.ID, &ts, &ev.DetectedObject, &ev.ImagePath); err != nil {
			return nil, fmt.Errorf("%w: failed to scan event: %w", model.ErrStorage, err)
		}
		parsed, err := time.ParseInLocation(model.TimestampLayout, ts, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: bad timestamp %q on event %d: %w", model.ErrStorage, ts, ev.ID, err)
		}
		ev.Timestamp = parsed
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate events: %w", model.ErrStorage, err)
	}
	return events, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxEventsLimit {
		return MaxEventsLimit
	}
	return limit
}
