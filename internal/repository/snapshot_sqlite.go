package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/gobang-backend/internal/apperror"
	"github.com/rocketscienceinc/gobang-backend/internal/gobang"
)

type sqliteSnapshot struct {
	conn *sql.DB
}

// NewSQLiteSnapshotRepository stores snapshots in the sessions table created
// by storage.SQLiteStorage.Init.
func NewSQLiteSnapshotRepository(conn *sql.DB) SnapshotRepository {
	return &sqliteSnapshot{
		conn: conn,
	}
}

func (that *sqliteSnapshot) Save(ctx context.Context, id string, snap *gobang.Snapshot) error {
	data, err := gobang.EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}

	query := `INSERT OR REPLACE INTO sessions (id, snapshot, updated_at) VALUES (?, ?, ?)`

	_, err = that.conn.ExecContext(ctx, query, id, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("can't save snapshot: %w", err)
	}

	return nil
}

func (that *sqliteSnapshot) GetByID(ctx context.Context, id string) (*gobang.Snapshot, error) {
	query := `SELECT snapshot FROM sessions WHERE id = ?`

	var data []byte

	err := that.conn.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find snapshot: %w", err)
	}

	snap, err := gobang.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}

	return snap, nil
}

func (that *sqliteSnapshot) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`

	result, err := that.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("can't delete snapshot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't count deleted rows: %w", err)
	}

	if affected == 0 {
		return apperror.ErrGameNotFound
	}

	return nil
}
