package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/libris-app/libris-server/internal/domain"
	domainerrors "github.com/libris-app/libris-server/internal/errors"
	"github.com/libris-app/libris-server/internal/pubsub"
	"github.com/libris-app/libris-server/internal/store"
)

// BookAddedEvent is the payload published on pubsub.TopicBookAdded. The
// book is fully populated: the author record travels with it so
// subscribers never see a bare author id.
type BookAddedEvent struct {
	Book   *domain.Book
	Author *domain.Author
}

// CatalogService orchestrates catalog reads and writes.
type CatalogService struct {
	store       *store.Store
	broadcaster pubsub.Broadcaster
	logger      *slog.Logger
}

// NewCatalogService creates a new catalog service. The broadcaster is
// injected so tests can substitute a double.
func NewCatalogService(store *store.Store, broadcaster pubsub.Broadcaster, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// AddBookRequest contains the addBook mutation arguments.
// Published is deliberately not range-checked: year zero and negative
// years are valid input, and presence is already enforced by the schema's
// non-null declaration.
type AddBookRequest struct {
	Title     string   `json:"title" validate:"required"`
	Author    string   `json:"author" validate:"required"`
	Published int32    `json:"published"`
	Genres    []string `json:"genres" validate:"dive,required"`
}

// AddBook creates a book on behalf of user. It requires an authenticated
// user, validates before touching storage, deduplicates the author,
// appends to the user's book log, and publishes the populated book to
// live subscribers.
func (s *CatalogService) AddBook(ctx context.Context, user *domain.User, req AddBookRequest) (*domain.Book, *domain.Author, error) {
	if user == nil {
		return nil, nil, domainerrors.Unauthenticated("you must be logged in to add a book")
	}

	invalidArgs := map[string]any{
		"title":     req.Title,
		"author":    req.Author,
		"published": req.Published,
		"genres":    req.Genres,
	}
	if err := validate.Struct(req); err != nil {
		return nil, nil, formatValidationError(err, invalidArgs)
	}

	author, err := s.store.EnsureAuthor(ctx, req.Author)
	if err != nil {
		return nil, nil, fmt.Errorf("ensure author: %w", err)
	}

	book, err := s.store.CreateBook(ctx, &domain.Book{
		Title:     req.Title,
		Published: req.Published,
		AuthorID:  author.ID,
		Genres:    req.Genres,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create book: %w", err)
	}

	// The book log on the user is best-effort; the book record is already
	// durable, so a failed append must not fail the mutation.
	if err := s.store.AppendUserBook(ctx, user.ID, book.ID); err != nil && s.logger != nil {
		s.logger.Warn("failed to append book to user log",
			"user_id", user.ID,
			"book_id", book.ID,
			"error", err)
	}

	s.broadcaster.Publish(pubsub.TopicBookAdded, BookAddedEvent{Book: book, Author: author})

	if s.logger != nil {
		s.logger.Info("book added",
			"book_id", book.ID,
			"title", book.Title,
			"author_id", author.ID,
			"user_id", user.ID)
	}

	return book, author, nil
}

// EditAuthor sets the birth year of the named author. It requires an
// authenticated user. An unknown name is not an error: the operation
// returns no author and leaves storage untouched, so repeated edits stay
// idempotent. A missing birth year is rejected before any lookup.
func (s *CatalogService) EditAuthor(ctx context.Context, user *domain.User, name string, setBornTo *int32) (*domain.Author, error) {
	if user == nil {
		return nil, domainerrors.Unauthenticated("you must be logged in to edit an author")
	}
	if setBornTo == nil {
		return nil, domainerrors.BadUserInput("setBornTo is required").
			WithInvalidArgs(map[string]any{"name": name})
	}

	author, err := s.store.SetAuthorBirthYear(ctx, name, *setBornTo)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("edit author: %w", err)
	}
	return author, nil
}

// AllBooks returns all books, or only those carrying the given genre.
func (s *CatalogService) AllBooks(ctx context.Context, genre string) ([]*domain.Book, error) {
	return s.store.ListBooks(ctx, genre)
}

// AllAuthors returns all authors. Book counts are not joined here; they
// are computed per author when the field is actually requested.
func (s *CatalogService) AllAuthors(ctx context.Context) ([]*domain.Author, error) {
	var authors []*domain.Author
	for author, err := range s.store.ListAuthors(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list authors: %w", err)
		}
		authors = append(authors, author)
	}
	return authors, nil
}

// BookCount returns the number of book records.
func (s *CatalogService) BookCount(ctx context.Context) (int, error) {
	return s.store.CountBooks(ctx)
}

// AuthorCount returns the number of distinct author records.
func (s *CatalogService) AuthorCount(ctx context.Context) (int, error) {
	return s.store.CountAuthors(ctx)
}

// AuthorBookCount computes the derived bookCount field for one author.
// Always recomputed, never cached, so it cannot go stale.
func (s *CatalogService) AuthorBookCount(ctx context.Context, authorID string) (int, error) {
	books, err := s.store.ListBooksByAuthor(ctx, authorID)
	if err != nil {
		return 0, err
	}
	return len(books), nil
}

// Author resolves an author by id, populating book references.
func (s *CatalogService) Author(ctx context.Context, authorID string) (*domain.Author, error) {
	return s.store.GetAuthor(ctx, authorID)
}

// Book resolves a book by id.
func (s *CatalogService) Book(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}
