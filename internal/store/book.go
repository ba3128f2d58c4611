package store

import (
	"context"
	"fmt"

	"github.com/libris-app/libris-server/internal/domain"
	"github.com/libris-app/libris-server/internal/id"
)

// CreateBook inserts a new book record and returns it with its assigned id.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := s.Books.Create(ctx, bookID, book); err != nil {
		return nil, fmt.Errorf("create book %q: %w", book.Title, err)
	}
	return book, nil
}

// GetBook retrieves a book by id.
func (s *Store) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.Books.Get(ctx, bookID)
}

// ListBooks returns all books, optionally restricted to those whose genre
// set contains genre. The genre field is an unindexed array, so filtering
// is a collection scan, matching the shape of the underlying data.
func (s *Store) ListBooks(ctx context.Context, genre string) ([]*domain.Book, error) {
	var books []*domain.Book
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		if genre != "" && !book.HasGenre(genre) {
			continue
		}
		books = append(books, book)
	}
	return books, nil
}

// ListBooksByAuthor returns all books referencing the given author id.
func (s *Store) ListBooksByAuthor(ctx context.Context, authorID string) ([]*domain.Book, error) {
	var books []*domain.Book
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list books by author: %w", err)
		}
		if book.AuthorID == authorID {
			books = append(books, book)
		}
	}
	return books, nil
}

// CountBooks returns the number of book records.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.Books.Count(ctx)
}
