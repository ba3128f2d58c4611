package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// maxTxnRetries bounds re-runs of write transactions aborted by Badger's
// optimistic conflict detection.
const maxTxnRetries = 5

// Entity provides generic document operations for any domain type.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []index[T]
}

// index defines a unique secondary index on an entity. Each index value
// maps to exactly one entity id; writes that would duplicate a value fail
// with ErrAlreadyExists.
type index[T any] struct {
	name   string
	keyGen func(*T) string
}

// NewEntity creates a new Entity instance for type T. All records are
// stored under the given key prefix.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:  s,
		prefix: prefix,
	}
}

// WithUniqueIndex adds a unique secondary index to the entity.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) string) *Entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) indexKey(name, value string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value)
}

// Create creates a new entity with the given ID.
// Returns ErrAlreadyExists if the ID or any unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(e.key(id)); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		for _, idx := range e.indexes {
			idxKey := e.indexKey(idx.name, idx.keyGen(entity))
			if _, err := txn.Get(idxKey); err == nil {
				return fmt.Errorf("index %s conflict: %w", idx.name, ErrAlreadyExists)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		for _, idx := range e.indexes {
			if err := txn.Set(e.indexKey(idx.name, idx.keyGen(entity)), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
		return nil
	})
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		return e.load(txn, id, &entity)
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetByIndex retrieves an entity by a unique secondary index value.
// Returns ErrNotFound if no entity carries that value.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		id, err := e.lookupIndex(txn, indexName, value)
		if err != nil {
			return err
		}
		return e.load(txn, id, &entity)
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// FindOrCreate returns the entity whose index value matches, or inserts
// the supplied entity under newID when no match exists. Lookup and insert
// happen in a single write transaction, so two concurrent callers racing
// on the same value cannot both insert: exactly one record wins and both
// callers observe it.
func (e *Entity[T]) FindOrCreate(ctx context.Context, indexName, value, newID string, entity *T) (*T, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal entity: %w", err)
	}

	var existing T
	created := false
	attempt := func() error {
		return e.store.db.Update(func(txn *badger.Txn) error {
			created = false
			id, err := e.lookupIndex(txn, indexName, value)
			if err == nil {
				return e.load(txn, id, &existing)
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}

			if err := txn.Set(e.key(newID), data); err != nil {
				return fmt.Errorf("failed to set key: %w", err)
			}
			for _, idx := range e.indexes {
				if err := txn.Set(e.indexKey(idx.name, idx.keyGen(entity)), []byte(newID)); err != nil {
					return fmt.Errorf("failed to set index key: %w", err)
				}
			}
			created = true
			return nil
		})
	}

	// Two transactions racing on the same index key abort with ErrConflict
	// under Badger's serializable isolation. The loser re-runs and finds
	// the winner's record, which is exactly the find-or-create contract.
	err = attempt()
	for retries := 0; errors.Is(err, badger.ErrConflict) && retries < maxTxnRetries; retries++ {
		err = attempt()
	}
	if err != nil {
		return nil, false, err
	}

	if created {
		return entity, true, nil
	}
	return &existing, false, nil
}

// Update updates an existing entity, rebuilding its index keys.
// Returns ErrNotFound if the entity does not exist and ErrAlreadyExists
// if a changed index value collides with another entity.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		var old T
		if err := e.load(txn, id, &old); err != nil {
			return err
		}

		for _, idx := range e.indexes {
			oldValue := idx.keyGen(&old)
			newValue := idx.keyGen(entity)
			if oldValue == newValue {
				continue
			}

			if _, err := txn.Get(e.indexKey(idx.name, newValue)); err == nil {
				return fmt.Errorf("index %s conflict: %w", idx.name, ErrAlreadyExists)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}

			if err := txn.Delete(e.indexKey(idx.name, oldValue)); err != nil {
				return fmt.Errorf("failed to delete old index key: %w", err)
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		for _, idx := range e.indexes {
			if err := txn.Set(e.indexKey(idx.name, idx.keyGen(entity)), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
		return nil
	})
}

// List returns an iterator over all entities.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return err
				}

				if e.isIndexKey(it.Item().Key()) {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&entity, nil) {
					return nil // Consumer stopped early
				}
			}

			return nil
		})
	}
}

// Count returns the number of stored entities. Index keys are skipped, so
// the count always equals the number of records.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
			if !e.isIndexKey(it.Item().Key()) {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// load reads and unmarshals one entity inside a transaction.
func (e *Entity[T]) load(txn *badger.Txn, id string, dest *T) error {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get key: %w", err)
	}
	return item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, dest); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		return nil
	})
}

// lookupIndex resolves an index value to an entity id inside a transaction.
func (e *Entity[T]) lookupIndex(txn *badger.Txn, indexName, value string) (string, error) {
	item, err := txn.Get(e.indexKey(indexName, value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get index key: %w", err)
	}

	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

func (e *Entity[T]) isIndexKey(key []byte) bool {
	k := string(key)
	return len(k) > len(e.prefix) && strings.HasPrefix(k[len(e.prefix):], "idx:")
}
