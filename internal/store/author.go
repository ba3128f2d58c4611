package store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/libris-app/libris-server/internal/domain"
	"github.com/libris-app/libris-server/internal/id"
)

// EnsureAuthor returns the author with the given name, creating it when
// no author carries that name yet. Lookup and insert run in one write
// transaction, so concurrent calls for the same new name converge on a
// single record instead of racing a find-then-insert sequence.
func (s *Store) EnsureAuthor(ctx context.Context, name string) (*domain.Author, error) {
	newID, err := id.Generate("author")
	if err != nil {
		return nil, fmt.Errorf("generate author ID: %w", err)
	}

	candidate := &domain.Author{Name: name}
	candidate.ID = newID
	candidate.InitTimestamps()

	author, created, err := s.Authors.FindOrCreate(ctx, "name", name, newID, candidate)
	if err != nil {
		return nil, fmt.Errorf("ensure author %q: %w", name, err)
	}

	if created && s.logger != nil {
		s.logger.Debug("author created", "author_id", author.ID, "name", name)
	}
	return author, nil
}

// SetAuthorBirthYear updates the birth year of the author with the given
// name and returns the updated record. Returns ErrNotFound when no author
// carries that name; callers that want no-op semantics translate that
// into an empty result.
func (s *Store) SetAuthorBirthYear(ctx context.Context, name string, born int32) (*domain.Author, error) {
	author, err := s.Authors.GetByIndex(ctx, "name", name)
	if err != nil {
		return nil, err
	}

	author.Born = &born
	author.Touch()

	if err := s.Authors.Update(ctx, author.ID, author); err != nil {
		return nil, fmt.Errorf("update author %q: %w", name, err)
	}
	return author, nil
}

// GetAuthor retrieves an author by id.
func (s *Store) GetAuthor(ctx context.Context, authorID string) (*domain.Author, error) {
	return s.Authors.Get(ctx, authorID)
}

// GetAuthorByName retrieves an author by its unique name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	return s.Authors.GetByIndex(ctx, "name", name)
}

// ListAuthors returns an iterator over all authors.
func (s *Store) ListAuthors(ctx context.Context) iter.Seq2[*domain.Author, error] {
	return s.Authors.List(ctx)
}

// CountAuthors returns the number of distinct author records.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.Authors.Count(ctx)
}

// IsNotFound reports whether err is the store's not-found sentinel.
// Convenience for call sites that treat missing records as empty results.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
