package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/libris-app/libris-server/internal/domain"
	"github.com/libris-app/libris-server/internal/errors"
	"github.com/libris-app/libris-server/internal/store"
)

// BookResolver resolves the Book type. The author is carried along when
// the caller already has it (mutations, subscription events) and looked
// up lazily otherwise.
type BookResolver struct {
	root   *Resolver
	book   *domain.Book
	author *domain.Author
}

func (b *BookResolver) ID() graphql.ID {
	return graphql.ID(b.book.ID)
}

func (b *BookResolver) Title() string {
	return b.book.Title
}

func (b *BookResolver) Published() int32 {
	return b.book.Published
}

func (b *BookResolver) Genres() []string {
	if b.book.Genres == nil {
		return []string{}
	}
	return b.book.Genres
}

func (b *BookResolver) Author(ctx context.Context) (*AuthorResolver, error) {
	if b.author == nil {
		author, err := b.root.catalog.Author(ctx, b.book.AuthorID)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "resolving book author")
		}
		b.author = author
	}
	return &AuthorResolver{root: b.root, author: b.author}, nil
}

// AuthorResolver resolves the Author type.
type AuthorResolver struct {
	root   *Resolver
	author *domain.Author
}

func (a *AuthorResolver) ID() graphql.ID {
	return graphql.ID(a.author.ID)
}

func (a *AuthorResolver) Name() string {
	return a.author.Name
}

func (a *AuthorResolver) Born() *int32 {
	return a.author.Born
}

func (a *AuthorResolver) BookCount(ctx context.Context) (int32, error) {
	n, err := a.root.catalog.AuthorBookCount(ctx, a.author.ID)
	return int32(n), err
}

// UserResolver resolves the User type.
type UserResolver struct {
	root *Resolver
	user *domain.User
}

func (u *UserResolver) ID() graphql.ID {
	return graphql.ID(u.user.ID)
}

func (u *UserResolver) Username() string {
	return u.user.Username
}

func (u *UserResolver) FavoriteGenre() *string {
	if u.user.FavoriteGenre == "" {
		return nil
	}
	genre := u.user.FavoriteGenre
	return &genre
}

// Books resolves the user's added-book log. Entries whose book has
// vanished are skipped rather than failing the whole field; the log is
// a convenience cache, not a source of truth.
func (u *UserResolver) Books(ctx context.Context) ([]*BookResolver, error) {
	resolvers := make([]*BookResolver, 0, len(u.user.BookIDs))
	for _, bookID := range u.user.BookIDs {
		book, err := u.root.catalog.Book(ctx, bookID)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return nil, errors.Wrap(err, errors.CodeInternal, "resolving user books")
		}
		resolvers = append(resolvers, &BookResolver{root: u.root, book: book})
	}
	return resolvers, nil
}

// TokenResolver resolves the Token type returned by login.
type TokenResolver struct {
	value string
}

func (t *TokenResolver) Value() string {
	return t.value
}
