package sqlite

import (
	"context"
	"fmt"
	"strings"

	"wildwatch/internal/model"
)

// EndpointRepository implements repository.EndpointRepository for SQLite.
type EndpointRepository struct {
	db *DB
}

// NewEndpointRepository creates a new SQLite endpoint repository.
func NewEndpointRepository(db *DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

// RegisterEndpoint stores token if absent. Malformed tokens wrap model.ErrInvalidInput
// and leave the table untouched.
func (r *EndpointRepository) RegisterEndpoint(ctx context.Context, token string) error {
	token, err := model.NormalizeToken(token)
	if err != nil {
		return err
	}

	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().ExecContext(ctx,
		`INSERT OR IGNORE INTO endpoints (token) VALUES (?)`, token); err != nil {
		return fmt.Errorf("%w: failed to register endpoint: %w", model.ErrStorage, err)
	}
	return nil
}

// RemoveEndpoints deletes the given tokens and returns how many rows went away.
func (r *EndpointRepository) RemoveEndpoints(ctx context.Context, tokens ...string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tokens)), ",")
	args := make([]interface{}, len(tokens))
	for i, t := range tokens {
		args[i] = t
	}

	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().ExecContext(ctx,
		`DELETE FROM endpoints WHERE token IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to remove endpoints: %w", model.ErrStorage, err)
	}
	return result.RowsAffected()
}

// ListEndpoints returns every registered token in registration order.
func (r *EndpointRepository) ListEndpoints(ctx context.Context) ([]string, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `SELECT token FROM endpoints ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query endpoints: %w", model.ErrStorage, err)
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("%w: failed to scan endpoint: %w", model.ErrStorage, err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate endpoints: %w", model.ErrStorage, err)
	}
	return tokens, nil
}
