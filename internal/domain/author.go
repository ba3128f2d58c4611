// Package domain contains the core business entities for the Libris catalog.
package domain

// Author represents a book author in the catalog.
//
// Name is unique across the author collection; the store enforces this
// with a unique index so concurrent writers cannot create duplicates.
// BookCount is never stored: it is recomputed per query from the books
// that reference this author, so it cannot go stale.
type Author struct {
	Record
	Name string `json:"name"`
	// Born is the birth year, nil until set via editAuthor.
	Born *int32 `json:"born,omitempty"`
}
