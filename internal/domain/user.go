package domain

// User represents an account that can authenticate and add books.
type User struct {
	Record
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	// FavoriteGenre is an optional preference set at signup.
	FavoriteGenre string `json:"favorite_genre,omitempty"`
	// BookIDs is a best-effort log of books this user has added, appended
	// on the write path. It is a convenience cache, not authoritative:
	// concurrent writers may miss appends, and readers should treat the
	// book records themselves as the source of truth.
	BookIDs []string `json:"book_ids,omitempty"`
}
