package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophstash/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

// SetMany writes all pairs atomically. Inside a caller's transaction the
// writes join it.
func (r *SQLiteRepository) SetMany(ctx context.Context, values map[string][]byte) error {
	db, ok := r.db.(*sql.DB)
	if !ok {
		return setAll(ctx, r, values)
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return setAll(ctx, NewSQLiteRepository(tx), values)
	})
}

func setAll(ctx context.Context, r *SQLiteRepository, values map[string][]byte) error {
	for k, v := range values {
		if err := r.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}
