// Package sqlite stores snapshots in an SQLite database migrated with
// golang-migrate.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codeberg.org/miketth/keynames/pkg/namestore"
	"codeberg.org/miketth/keynames/pkg/namestore/sqlite/migrations"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type Store struct {
	db      *sql.DB
	querier *Queries
}

// NewStore opens filename and migrates it. Deleting a snapshot relies on
// foreign key cascades, so they are switched on for every connection.
func NewStore(filename string, log *zap.SugaredLogger) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+filename+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrations.Migrate(db, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{
		db:      db,
		querier: New(db),
	}, nil
}

// SchemaVersion reports the migration the database is at.
func (s *Store) SchemaVersion() (uint, error) {
	version, dirty, err := migrations.Version(s.db)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveSnapshot(snapshot namestore.Snapshot) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := s.querier.WithTx(tx)

	if err := q.DeleteSnapshot(ctx, snapshot.Label); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}

	createdAt := snapshot.CreatedAt.UTC().Format(time.RFC3339Nano)
	if err := q.InsertSnapshot(ctx, snapshot.Label, createdAt); err != nil {
		return fmt.Errorf("sqlite insert snapshot: %w", err)
	}

	for i, layout := range snapshot.Layouts {
		if err := q.InsertLayout(ctx, snapshot.Label, i, layout); err != nil {
			return fmt.Errorf("sqlite insert layout: %w", err)
		}
	}

	for _, e := range snapshot.Entries {
		err := q.InsertKey(ctx, InsertKeyParams{
			Label: snapshot.Label,
			Code:  int64(e.Code),
			Key:   e.Key,
			Name:  e.Name,
		})
		if err != nil {
			return fmt.Errorf("sqlite insert key %d: %w", e.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) GetSnapshot(label string) (namestore.Snapshot, error) {
	ctx := context.Background()

	createdAt, err := s.querier.GetSnapshot(ctx, label)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return namestore.Snapshot{}, namestore.ErrNotFound
	case err != nil:
		return namestore.Snapshot{}, fmt.Errorf("sqlite select: %w", err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return namestore.Snapshot{}, fmt.Errorf("parse created_at: %w", err)
	}

	layouts, err := s.querier.GetLayouts(ctx, label)
	if err != nil {
		return namestore.Snapshot{}, fmt.Errorf("sqlite select layouts: %w", err)
	}

	keys, err := s.querier.GetKeys(ctx, label)
	if err != nil {
		return namestore.Snapshot{}, fmt.Errorf("sqlite select keys: %w", err)
	}

	entries := make([]namestore.Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, namestore.Entry{
			Code: uint32(k.Code),
			Key:  k.Key,
			Name: k.Name,
		})
	}

	return namestore.Snapshot{
		Label:     label,
		Layouts:   layouts,
		CreatedAt: created,
		Entries:   entries,
	}, nil
}

func (s *Store) ListSnapshots() ([]string, error) {
	labels, err := s.querier.ListLabels(context.Background())
	if err != nil {
		return nil, fmt.Errorf("sqlite select: %w", err)
	}
	return labels, nil
}
