// Package jsonfile stores each table as one JSON document on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"ticketing/internal/domain"
	"ticketing/internal/repository"
)

// Default file names, relative to the data directory.
const (
	DefaultEventsFile = "events.json"
	DefaultCountsFile = "data.json"
)

type tableStore struct {
	paths map[domain.Table]string
	locks map[domain.Table]*sync.RWMutex
}

// NewTableStore returns a TableStore backed by one file per table. paths maps every table the
// caller will use to its file; a table without a path fails with a StorageError.
func NewTableStore(paths map[domain.Table]string) domain.TableStore {
	s := &tableStore{
		paths: make(map[domain.Table]string, len(paths)),
		locks: make(map[domain.Table]*sync.RWMutex, len(paths)),
	}
	for table, p := range paths {
		s.paths[table] = p
		s.locks[table] = &sync.RWMutex{}
	}
	return s
}

// DefaultPaths returns the events.json / data.json layout under dir.
func DefaultPaths(dir string) map[domain.Table]string {
	return map[domain.Table]string{
		domain.TableEvents: filepath.Join(dir, DefaultEventsFile),
		domain.TableCounts: filepath.Join(dir, DefaultCountsFile),
	}
}

func (s *tableStore) lookup(table domain.Table, op string) (string, *sync.RWMutex, error) {
	p, ok := s.paths[table]
	if !ok {
		return "", nil, domain.NewStorageError(table, op, errors.New("unknown table"))
	}
	return p, s.locks[table], nil
}

func (s *tableStore) Get(ctx context.Context, table domain.Table, dest any) error {
	p, mu, err := s.lookup(table, "get")
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(table, "get", err)
	}
	mu.RLock()
	data, err := os.ReadFile(p)
	mu.RUnlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return domain.NewStorageError(table, "get", err)
	}
	return repository.Decode(table, data, dest)
}

func (s *tableStore) Put(ctx context.Context, table domain.Table, src any) error {
	p, mu, err := s.lookup(table, "put")
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.NewStorageError(table, "put", err)
	}
	data, err := repository.Encode(table, src)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if err := writeFileAtomic(p, data); err != nil {
		return domain.NewStorageError(table, "put", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path, syncs it and renames it over path, so a
// crash leaves either the old or the new document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
