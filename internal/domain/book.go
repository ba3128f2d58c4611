package domain

// Book represents a single book in the catalog.
//
// AuthorID references exactly one Author by id; books are immutable once
// created (the API has no edit or delete operation for them).
type Book struct {
	Record
	Title     string   `json:"title"`
	Published int32    `json:"published"`
	AuthorID  string   `json:"author_id"`
	Genres    []string `json:"genres,omitempty"`
}

// HasGenre reports whether the book's genre set contains the given genre.
func (b *Book) HasGenre(genre string) bool {
	for _, g := range b.Genres {
		if g == genre {
			return true
		}
	}
	return false
}
