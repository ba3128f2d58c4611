package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/libris-app/libris-server/internal/domain"
)

// ErrUsernameTaken is returned when creating a user whose username is
// already in use.
var ErrUsernameTaken = errors.New("username already taken")

// CreateUser inserts a new user record. The caller supplies the id.
// Returns ErrUsernameTaken when the unique username index rejects the
// insert.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.Users.Create(ctx, user.ID, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create user %q: %w", user.Username, err)
	}
	return nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.Users.Get(ctx, userID)
}

// GetUserByUsername retrieves a user by its unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, "username", username)
}

// AppendUserBook appends a book id to the user's best-effort log of added
// books. The log is a denormalized convenience list; losing an append
// under concurrent writers is acceptable, losing the book record is not,
// so this runs after the book insert and its failure is reported but not
// fatal to the mutation.
func (s *Store) AppendUserBook(ctx context.Context, userID, bookID string) error {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return err
	}

	user.BookIDs = append(user.BookIDs, bookID)
	user.Touch()

	if err := s.Users.Update(ctx, user.ID, user); err != nil {
		return fmt.Errorf("append book to user %q: %w", userID, err)
	}
	return nil
}
