// Package storetest checks that a namestore.Store behaves like the others.
package storetest

import (
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"codeberg.org/miketth/keynames/pkg/namestore"
)

// Snapshot returns a small snapshot under label.
func Snapshot(label string) namestore.Snapshot {
	return namestore.Snapshot{
		Label:     label,
		Layouts:   []string{"English (US)", "Hungarian"},
		CreatedAt: time.Date(2024, 3, 1, 12, 30, 15, 123456789, time.UTC),
		Entries: []namestore.Entry{
			{Code: 1, Key: "KEY_ESC", Name: "Escape"},
			{Code: 30, Key: "KEY_A", Name: "A"},
			{Code: 31, Key: "KEY_S", Name: "é"},
		},
	}
}

// Run exercises the Store contract against a fresh store from open.
func Run(t *testing.T, open func(t *testing.T) namestore.Store) {
	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		if _, err := s.GetSnapshot("nope"); !errors.Is(err, namestore.ErrNotFound) {
			t.Errorf("GetSnapshot() error = %v, want %v", err, namestore.ErrNotFound)
		}
	})

	t.Run("save and get", func(t *testing.T) {
		s := open(t)
		want := Snapshot("work")
		if err := s.SaveSnapshot(want); err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}

		got, err := s.GetSnapshot("work")
		if err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}
		if !equal(got, want) {
			t.Errorf("GetSnapshot() = %+v, want %+v", got, want)
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		s := open(t)
		if err := s.SaveSnapshot(Snapshot("work")); err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}

		want := Snapshot("work")
		want.Layouts = []string{"German"}
		want.Entries = want.Entries[:1]
		if err := s.SaveSnapshot(want); err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}

		got, err := s.GetSnapshot("work")
		if err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}
		if !equal(got, want) {
			t.Errorf("GetSnapshot() = %+v, want %+v", got, want)
		}
	})

	t.Run("returned snapshot is a copy", func(t *testing.T) {
		s := open(t)
		if err := s.SaveSnapshot(Snapshot("work")); err != nil {
			t.Fatalf("SaveSnapshot() error = %v", err)
		}

		got, _ := s.GetSnapshot("work")
		got.Entries[0].Name = "changed"
		got.Layouts[0] = "changed"

		again, err := s.GetSnapshot("work")
		if err != nil {
			t.Fatalf("GetSnapshot() error = %v", err)
		}
		if !equal(again, Snapshot("work")) {
			t.Errorf("GetSnapshot() = %+v after caller mutation", again)
		}
	})

	t.Run("list", func(t *testing.T) {
		s := open(t)
		labels, err := s.ListSnapshots()
		if err != nil {
			t.Fatalf("ListSnapshots() error = %v", err)
		}
		if len(labels) != 0 {
			t.Errorf("ListSnapshots() = %v, want empty", labels)
		}

		for _, label := range []string{"work", "home", "laptop"} {
			if err := s.SaveSnapshot(Snapshot(label)); err != nil {
				t.Fatalf("SaveSnapshot(%q) error = %v", label, err)
			}
		}

		labels, err = s.ListSnapshots()
		if err != nil {
			t.Fatalf("ListSnapshots() error = %v", err)
		}
		want := []string{"home", "laptop", "work"}
		if !sort.StringsAreSorted(labels) || !reflect.DeepEqual(labels, want) {
			t.Errorf("ListSnapshots() = %v, want %v", labels, want)
		}
	})
}

func equal(a, b namestore.Snapshot) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return reflect.DeepEqual(a, b)
}
