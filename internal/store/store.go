// Package store provides the document store for the Libris catalog,
// backed by a Badger key-value database. Domain knowledge stays out of
// the generic layer: entities are registered with key prefixes and
// unique secondary indexes, and entity-specific helpers live in their
// own files.
package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/libris-app/libris-server/internal/domain"
)

// Sentinel errors returned by store operations.
var (
	// ErrNotFound is returned when no entity matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on id or unique-index conflicts.
	ErrAlreadyExists = errors.New("already exists")
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	Users   *Entity[domain.User]
	Authors *Entity[domain.Author]
	Books   *Entity[domain.Book]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	store.initEntities()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initEntities registers the catalog entities and their indexes.
// Usernames and author names are unique; the index conflict check inside
// the entity's write transaction is what enforces that under concurrency.
func (s *Store) initEntities() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithUniqueIndex("username", func(u *domain.User) string {
			return u.Username
		})

	s.Authors = NewEntity[domain.Author](s, "author:").
		WithUniqueIndex("name", func(a *domain.Author) string {
			return a.Name
		})

	s.Books = NewEntity[domain.Book](s, "book:")
}
