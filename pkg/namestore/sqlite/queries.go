package sqlite

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const deleteSnapshot = `delete from snapshots where label = ?`

func (q *Queries) DeleteSnapshot(ctx context.Context, label string) error {
	_, err := q.db.ExecContext(ctx, deleteSnapshot, label)
	return err
}

const insertSnapshot = `insert into snapshots (label, created_at) values (?, ?)`

func (q *Queries) InsertSnapshot(ctx context.Context, label, createdAt string) error {
	_, err := q.db.ExecContext(ctx, insertSnapshot, label, createdAt)
	return err
}

const insertLayout = `insert into snapshot_layouts (label, position, name) values (?, ?, ?)`

func (q *Queries) InsertLayout(ctx context.Context, label string, position int, name string) error {
	_, err := q.db.ExecContext(ctx, insertLayout, label, position, name)
	return err
}

type InsertKeyParams struct {
	Label string
	Code  int64
	Key   string
	Name  string
}

const insertKey = `insert into snapshot_keys (label, code, key, name) values (?, ?, ?, ?)`

func (q *Queries) InsertKey(ctx context.Context, arg InsertKeyParams) error {
	_, err := q.db.ExecContext(ctx, insertKey, arg.Label, arg.Code, arg.Key, arg.Name)
	return err
}

const getSnapshot = `select created_at from snapshots where label = ?`

func (q *Queries) GetSnapshot(ctx context.Context, label string) (string, error) {
	var createdAt string
	err := q.db.QueryRowContext(ctx, getSnapshot, label).Scan(&createdAt)
	return createdAt, err
}

const getLayouts = `select name from snapshot_layouts where label = ? order by position`

func (q *Queries) GetLayouts(ctx context.Context, label string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getLayouts, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

type Key struct {
	Code int64
	Key  string
	Name string
}

const getKeys = `select code, key, name from snapshot_keys where label = ? order by code`

func (q *Queries) GetKeys(ctx context.Context, label string) ([]Key, error) {
	rows, err := q.db.QueryContext(ctx, getKeys, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.Code, &k.Key, &k.Name); err != nil {
			return nil, err
		}
		items = append(items, k)
	}
	return items, rows.Err()
}

const listLabels = `select label from snapshots order by label`

func (q *Queries) ListLabels(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listLabels)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		items = append(items, label)
	}
	return items, rows.Err()
}
