package memory

import (
	"sort"
	"sync"

	"codeberg.org/miketth/keynames/pkg/namestore"
)

type Store struct {
	snapshots map[string]namestore.Snapshot
	lock      sync.Mutex
}

func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]namestore.Snapshot),
	}
}

func (s *Store) SaveSnapshot(snapshot namestore.Snapshot) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.snapshots[snapshot.Label] = clone(snapshot)
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

func (s *Store) Close() error {
	return nil
}

func clone(s namestore.Snapshot) namestore.Snapshot {
	s.Layouts = append([]string(nil), s.Layouts...)
	s.Entries = append([]namestore.Entry(nil), s.Entries...)
	return s
}
