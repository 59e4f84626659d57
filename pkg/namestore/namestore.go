// Package namestore keeps labelled snapshots of what every key is called
// under a given keyboard layout.
package namestore

import (
	"errors"
	"time"

	"codeberg.org/miketth/keynames/pkg/keycodes"
)

var ErrNotFound = errors.New("snapshot not found")

// Entry is one translated key. Key is the evdev name, Name what the layout
// shows for it.
type Entry struct {
	Code uint32 `json:"code"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

type Snapshot struct {
	Label     string    `json:"label"`
	Layouts   []string  `json:"layouts"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Store persists snapshots by label. Saving under an existing label
// replaces the previous snapshot.
type Store interface {
	SaveSnapshot(snapshot Snapshot) error
	GetSnapshot(label string) (Snapshot, error)
	ListSnapshots() ([]string, error)
	Close() error
}

type Translator interface {
	GetKeyAsString(scancode uint32) string
}

// noSymbol is how xkbcommon names keysym 0, the answer for keys the layout
// does not map.
const noSymbol = "NoSymbol"

// Build translates codes in order. Keys the layout does not map, reported
// as "" or "NoSymbol", are left out.
func Build(label string, layouts []string, translator Translator, codes []uint32, now time.Time) Snapshot {
	snapshot := Snapshot{
		Label:     label,
		Layouts:   layouts,
		CreatedAt: now.UTC(),
		Entries:   make([]Entry, 0, len(codes)),
	}

	for _, code := range codes {
		name := translator.GetKeyAsString(code)
		if name == "" || name == noSymbol {
			continue
		}
		snapshot.Entries = append(snapshot.Entries, Entry{
			Code: code,
			Key:  keycodes.Name(code),
			Name: name,
		})
	}

	return snapshot
}
