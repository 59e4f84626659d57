// Package json keeps snapshots in a single JSON file. Changes are held in
// memory and written out by Flush or Close.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"codeberg.org/miketth/keynames/pkg/namestore"
)

type Store struct {
	snapshots map[string]namestore.Snapshot
	file      *os.File
	lock      sync.Mutex
	dirty     bool
}

func NewStore(filename string) (*Store, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	store := &Store{
		snapshots: make(map[string]namestore.Snapshot),
		file:      file,
	}

	if err := store.load(); err != nil {
		file.Close()
		return nil, fmt.Errorf("load: %w", err)
	}

	return store, nil
}

// Close writes pending changes and closes the file.
func (s *Store) Close() error {
	flushErr := s.Flush()
	closeErr := s.file.Close()
	return errors.Join(flushErr, closeErr)
}

func (s *Store) load() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, err := s.file.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	err = json.NewDecoder(s.file).Decode(&s.snapshots)
	switch {
	case errors.Is(err, io.EOF):
		// new file
		return nil
	case err != nil:
		return fmt.Errorf("decode json: %w", err)
	}

	return nil
}

func (s *Store) Flush() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.dirty {
		return nil
	}

	_, err := s.file.Seek(0, io.SeekStart)
	if err != nil {
		return fmt.Errorf("seek to start of file: %w", err)
	}

	err = s.file.Truncate(0)
	if err != nil {
		return fmt.Errorf("truncate file: %w", err)
	}

	enc := json.NewEncoder(s.file)
	enc.SetIndent("", "  ")
	err = enc.Encode(s.snapshots)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync file: %w", err)
	}

	s.dirty = false

	return nil
}

func (s *Store) SaveSnapshot(snapshot namestore.Snapshot) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.snapshots[snapshot.Label] = clone(snapshot)
	s.dirty = true
	return nil
}

func (s *Store) GetSnapshot(label string) (namestore.Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	snapshot, ok := s.snapshots[label]
	if !ok {
		return namestore.Snapshot{}, namestore.ErrNotFound
	}
	return clone(snapshot), nil
}

func (s *Store) ListSnapshots() ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	labels := make([]string, 0, len(s.snapshots))
	for label := range s.snapshots {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels, nil
}

func clone(s namestore.Snapshot) namestore.Snapshot {
	s.Layouts = append([]string(nil), s.Layouts...)
	s.Entries = append([]namestore.Entry(nil), s.Entries...)
	return s
}
