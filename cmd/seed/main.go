// Package main provides a tool to seed the catalog with sample data.
//
// It creates a demo user and a small set of well-known books so the
// GraphQL API has something to serve on a fresh install.
//
// Usage:
//
//	DATA_PATH=~/Libris/data go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/libris-app/libris-server/internal/auth"
	"github.com/libris-app/libris-server/internal/domain"
	"github.com/libris-app/libris-server/internal/id"
	"github.com/libris-app/libris-server/internal/pubsub"
	"github.com/libris-app/libris-server/internal/service"
	"github.com/libris-app/libris-server/internal/store"
)

var (
	username = flag.String("username", "demo", "Username for the seed user")
	password = flag.String("password", "demo-password", "Password for the seed user")
)

type seedBook struct {
	title     string
	author    string
	published int32
	genres    []string
}

var seedBooks = []seedBook{
	{"Clean Code", "Robert Martin", 2008, []string{"refactoring"}},
	{"Agile software development", "Robert Martin", 2002, []string{"agile", "patterns", "design"}},
	{"Refactoring, edition 2", "Martin Fowler", 2018, []string{"refactoring"}},
	{"Refactoring to patterns", "Joshua Kerievsky", 2004, []string{"refactoring", "patterns"}},
	{"Practical Object-Oriented Design, An Agile Primer Using Ruby", "Sandi Metz", 2012, []string{"refactoring", "design"}},
	{"Crime and punishment", "Fyodor Dostoevsky", 1866, []string{"classic", "crime"}},
	{"Demons", "Fyodor Dostoevsky", 1872, []string{"classic", "revolution"}},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/Libris/data")
	}
	dbPath := filepath.Join(dataPath, "catalog")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	user, err := ensureUser(ctx, s, *username, *password)
	if err != nil {
		log.Fatalf("Failed to create seed user: %v", err)
	}
	fmt.Printf("Seed user ready: %s (%s)\n", user.Username, user.ID)

	catalog := service.NewCatalogService(s, pubsub.Noop{}, nil)

	added := 0
	for _, b := range seedBooks {
		book, _, err := catalog.AddBook(ctx, user, service.AddBookRequest{
			Title:     b.title,
			Author:    b.author,
			Published: b.published,
			Genres:    b.genres,
		})
		if err != nil {
			log.Printf("Skipping %q: %v", b.title, err)
			continue
		}
		fmt.Printf("Added %q (%s)\n", book.Title, book.ID)
		added++
	}

	books, err := s.CountBooks(ctx)
	if err != nil {
		log.Fatalf("Failed to count books: %v", err)
	}
	authors, err := s.CountAuthors(ctx)
	if err != nil {
		log.Fatalf("Failed to count authors: %v", err)
	}

	fmt.Printf("\nDone: %d books added this run, %d books and %d authors total\n", added, books, authors)
}

// ensureUser returns the named user, creating it with the given
// password if it doesn't exist yet.
func ensureUser(ctx context.Context, s *store.Store, username, password string) (*domain.User, error) {
	if user, err := s.GetUserByUsername(ctx, username); err == nil {
		return user, nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Record:       domain.Record{ID: id.MustGenerate("user")},
		Username:     username,
		PasswordHash: hash,
	}
	user.InitTimestamps()
	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
