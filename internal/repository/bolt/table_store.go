// Package bolt stores tables as JSON values in a single BoltDB bucket.
package bolt

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"ticketing/internal/domain"
	"ticketing/internal/repository"
)

var bucketTables = []byte("tables")

// TableStore keeps one key per table in the "tables" bucket. Bolt serialises writers, so every
// Put is already exclusive per database.
type TableStore struct {
	db *bolt.DB
}

// Open opens (creating if needed) the Bolt database at path and its bucket.
func Open(path string, options *bolt.Options) (*TableStore, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTables)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &TableStore{db: db}, nil
}

// Close releases the underlying Bolt database handle.
func (s *TableStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *TableStore) Get(ctx context.Context, table domain.Table, dest any) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(table, "get", err)
	}
	var decodeErr error
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketTables).Get([]byte(table))
		decodeErr = repository.Decode(table, raw, dest)
		return nil
	})
	if err != nil {
		return domain.NewStorageError(table, "get", err)
	}
	return decodeErr
}

func (s *TableStore) Put(ctx context.Context, table domain.Table, src any) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(table, "put", err)
	}
	doc, err := repository.Encode(table, src)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTables).Put([]byte(table), doc)
	}); err != nil {
		return domain.NewStorageError(table, "put", err)
	}
	return nil
}

var _ domain.TableStore = (*TableStore)(nil)
