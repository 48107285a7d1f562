// Package migrator applies embedded goose migrations. Every bounded context
// keeps its own version table so contexts migrate independently.
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/ghuser/notekeeper/pkg/logger"
)

// NewProvider returns a goose provider over the SQL files in fsys that
// records applied versions in versionTable.
func NewProvider(db *sql.DB, fsys fs.FS, versionTable string) (*goose.Provider, error) {
	store, err := database.NewStore(database.DialectPostgres, versionTable)
	if err != nil {
		return nil, fmt.Errorf("goose store %s: %w", versionTable, err)
	}
	p, err := goose.NewProvider("", db, fsys, goose.WithStore(store))
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Up applies every pending migration in fsys against dsn and logs each one.
func Up(ctx context.Context, dsn string, fsys fs.FS, versionTable string, log logger.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	p, err := NewProvider(db, fsys, versionTable)
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", versionTable, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			"table", versionTable,
			"version", r.Source.Version,
			"file", r.Source.Path,
			"duration", r.Duration,
		)
	}
	if len(results) == 0 {
		log.InfoContext(ctx, "schema up to date", "table", versionTable)
	}
	return nil
}
