package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophstash/internal/client/migrations"
	"github.com/dmitrijs2005/gophstash/internal/dbx"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InitDatabase opens the local sqlite database at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := dbx.OpenSQLite(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
