// Package memory is an in-process TableStore for tests and ephemeral runs.
package memory

import (
	"context"
	"sync"

	"ticketing/internal/domain"
	"ticketing/internal/repository"
)

// TableStore keeps the encoded document of each table in memory. Documents go through the same
// codec as the durable stores so callers never share maps with the store.
type TableStore struct {
	mu   sync.RWMutex
	docs map[domain.Table][]byte
}

// NewTableStore returns an empty in-memory store.
func NewTableStore() *TableStore {
	return &TableStore{docs: make(map[domain.Table][]byte)}
}

func (s *TableStore) Get(ctx context.Context, table domain.Table, dest any) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(table, "get", err)
	}
	s.mu.RLock()
	doc := s.docs[table]
	s.mu.RUnlock()
	return repository.Decode(table, doc, dest)
}

func (s *TableStore) Put(ctx context.Context, table domain.Table, src any) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(table, "put", err)
	}
	doc, err := repository.Encode(table, src)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[table] = doc
	s.mu.Unlock()
	return nil
}

// Raw returns the stored document for table, or nil.
func (s *TableStore) Raw(table domain.Table) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[table]
}

// SetRaw replaces the stored document for table without decoding it.
func (s *TableStore) SetRaw(table domain.Table, doc []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[table] = doc
}

var _ domain.TableStore = (*TableStore)(nil)
