package graph

import (
	"context"
	"log/slog"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/libris-app/libris-server/internal/pubsub"
	"github.com/libris-app/libris-server/internal/service"
)

// Resolver is the root resolver for all three operation types. Field
// methods delegate to the catalog and auth services; authentication
// state travels in the request context.
type Resolver struct {
	catalog     *service.CatalogService
	auth        *service.AuthService
	broadcaster pubsub.Broadcaster
	logger      *slog.Logger
}

func NewResolver(catalog *service.CatalogService, auth *service.AuthService, broadcaster pubsub.Broadcaster, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog:     catalog,
		auth:        auth,
		broadcaster: broadcaster,
		logger:      logger.With("component", "graph"),
	}
}

// NewSchema parses the schema declaration against the resolver. Panics
// on a schema/resolver mismatch, which is a programming error caught at
// startup (and in tests).
func NewSchema(resolver *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, resolver, graphql.MaxParallelism(20))
}

// --- Query ---

func (r *Resolver) BookCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.BookCount(ctx)
	return int32(n), err
}

func (r *Resolver) AuthorCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.AuthorCount(ctx)
	return int32(n), err
}

func (r *Resolver) AllBooks(ctx context.Context, args struct{ Genre *string }) ([]*BookResolver, error) {
	var genre string
	if args.Genre != nil {
		genre = *args.Genre
	}
	books, err := r.catalog.AllBooks(ctx, genre)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*BookResolver, 0, len(books))
	for _, book := range books {
		resolvers = append(resolvers, &BookResolver{root: r, book: book})
	}
	return resolvers, nil
}

func (r *Resolver) AllAuthors(ctx context.Context) ([]*AuthorResolver, error) {
	authors, err := r.catalog.AllAuthors(ctx)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*AuthorResolver, 0, len(authors))
	for _, author := range authors {
		resolvers = append(resolvers, &AuthorResolver{root: r, author: author})
	}
	return resolvers, nil
}

func (r *Resolver) Me(ctx context.Context) *UserResolver {
	user := CurrentUser(ctx)
	if user == nil {
		return nil
	}
	return &UserResolver{root: r, user: user}
}

// --- Mutation ---

type addBookArgs struct {
	Title     string
	Author    string
	Published int32
	Genres    []string
}

func (r *Resolver) AddBook(ctx context.Context, args addBookArgs) (*BookResolver, error) {
	book, author, err := r.catalog.AddBook(ctx, CurrentUser(ctx), service.AddBookRequest{
		Title:     args.Title,
		Author:    args.Author,
		Published: args.Published,
		Genres:    args.Genres,
	})
	if err != nil {
		return nil, err
	}
	return &BookResolver{root: r, book: book, author: author}, nil
}

func (r *Resolver) EditAuthor(ctx context.Context, args struct {
	Name      string
	SetBornTo *int32
}) (*AuthorResolver, error) {
	author, err := r.catalog.EditAuthor(ctx, CurrentUser(ctx), args.Name, args.SetBornTo)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, nil
	}
	return &AuthorResolver{root: r, author: author}, nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct {
	Username      string
	Password      string
	FavoriteGenre *string
}) (*UserResolver, error) {
	var favoriteGenre string
	if args.FavoriteGenre != nil {
		favoriteGenre = *args.FavoriteGenre
	}
	user, err := r.auth.CreateUser(ctx, service.CreateUserRequest{
		Username:      args.Username,
		Password:      args.Password,
		FavoriteGenre: favoriteGenre,
	})
	if err != nil {
		return nil, err
	}
	return &UserResolver{root: r, user: user}, nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Username string
	Password string
}) (*TokenResolver, error) {
	token, err := r.auth.Login(ctx, args.Username, args.Password)
	if err != nil {
		return nil, err
	}
	return &TokenResolver{value: token}, nil
}

// --- Subscription ---

// BookAdded streams every book added after the subscription starts. The
// event already carries the author, so delivering to a subscriber never
// touches the store.
func (r *Resolver) BookAdded(ctx context.Context) (<-chan *BookResolver, error) {
	events, err := r.broadcaster.Subscribe(ctx, pubsub.TopicBookAdded)
	if err != nil {
		return nil, err
	}

	out := make(chan *BookResolver)
	go func() {
		defer close(out)
		for payload := range events {
			event, ok := payload.(service.BookAddedEvent)
			if !ok {
				r.logger.Warn("dropping unexpected payload on book-added topic")
				continue
			}
			select {
			case out <- &BookResolver{root: r, book: event.Book, author: event.Author}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
