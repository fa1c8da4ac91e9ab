// Package filestore is an append-only, line-oriented file implementation
// of the store contract.
//
// Every mutation appends one JSON line holding the full record snapshot;
// the latest line per id wins on replay. The file is the journal and the
// in-memory index is the current state, so point reads never touch disk.
// There is no cross-process locking: two processes appending to the same
// file race with last-writer-wins semantics, exactly as the store
// contract documents.
package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/keyfold/keyfold/store"
)

// Store is a file-backed record store for one entity kind.
type Store[T store.Record] struct {
	mu     sync.Mutex
	path   string
	f      *os.File
	index  map[string]T
	order  []string
	unique store.UniqueKey[T]
}

// Open loads (or creates) the journal at path and replays it into memory.
// unique may be nil when the entity kind has no alternate key.
func Open[T store.Record](path string, unique store.UniqueKey[T]) (*Store[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("filestore: open %s: %w", path, err)
	}

	s := &Store[T]{
		path:   path,
		f:      f,
		index:  make(map[string]T),
		unique: unique,
	}
	if err := s.replay(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store[T]) replay() error {
	if _, err := s.f.Seek(0, 0); err != nil {
		return fmt.Errorf("filestore: seek: %w", err)
	}
	sc := bufio.NewScanner(s.f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("filestore: %s line %d: %w", s.path, line, err)
		}
		id := rec.RecordID()
		if _, seen := s.index[id]; !seen {
			s.order = append(s.order, id)
		}
		s.index[id] = rec
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("filestore: read %s: %w", s.path, err)
	}
	return nil
}

// Close releases the underlying file handle.
func (s *Store[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

func (s *Store[T]) ListAll(ctx context.Context) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.index[id])
	}
	return out, nil
}

func (s *Store[T]) GetByID(ctx context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.index[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("id %q: %w", id, store.ErrNotFound)
	}
	return rec, nil
}

func (s *Store[T]) Append(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.RecordID()
	if _, exists := s.index[id]; exists {
		return fmt.Errorf("id %q: %w", id, store.ErrDuplicate)
	}
	if key := s.uniqueKeyOf(rec); key != "" {
		for _, other := range s.index {
			if s.uniqueKeyOf(other) == key {
				return fmt.Errorf("key %q: %w", key, store.ErrDuplicate)
			}
		}
	}
	if err := s.writeLine(rec); err != nil {
		return err
	}
	s.index[id] = rec
	s.order = append(s.order, id)
	return nil
}

func (s *Store[T]) UpdateByID(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := rec.RecordID()
	if _, exists := s.index[id]; !exists {
		return fmt.Errorf("id %q: %w", id, store.ErrNotFound)
	}
	if err := s.writeLine(rec); err != nil {
		return err
	}
	s.index[id] = rec
	return nil
}

// Compact rewrites the journal with only the latest snapshot per record.
// Useful for long-lived deployments whose journals accrete updates.
func (s *Store[T]) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".compact"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("filestore: compact: %w", err)
	}
	w := bufio.NewWriter(out)
	for _, id := range s.order {
		data, err := json.Marshal(s.index[id])
		if err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("filestore: compact marshal: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("filestore: compact write: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("filestore: compact flush: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := s.f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("filestore: compact rename: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("filestore: reopen after compact: %w", err)
	}
	s.f = f
	return nil
}

func (s *Store[T]) writeLine(rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("filestore: marshal: %w", err)
	}
	if _, err := s.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("filestore: append: %w", err)
	}
	return nil
}

func (s *Store[T]) uniqueKeyOf(rec T) string {
	if s.unique == nil {
		return ""
	}
	return s.unique(rec)
}
