package sqlite

import "fmt"

// Store bundles the three repositories over one database and satisfies
// repository.EventStore.
type Store struct {
	*EventRepository
	*WatchlistRepository
	*EndpointRepository
	db *DB
}

// Open opens (and migrates) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore wraps an already opened database.
func NewStore(db *DB) *Store {
	return &Store{
		EventRepository:     NewEventRepository(db),
		WatchlistRepository: NewWatchlistRepository(db),
		EndpointRepository:  NewEndpointRepository(db),
		db:                  db,
	}
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
