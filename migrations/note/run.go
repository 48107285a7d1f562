// Command note applies the note context's schema migrations.
package main

import (
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/ghuser/notekeeper/pkg/config"
	"github.com/ghuser/notekeeper/pkg/logger"
	"github.com/ghuser/notekeeper/pkg/migrator"
)

//go:embed *.sql
var MigrationsFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.NewText(os.Stderr, cfg.LogLevel)
	if err := migrator.Up(context.Background(), cfg.DefinitionDatabaseURL, MigrationsFS, "note_goose_db_version", log); err != nil {
		log.Error("note migrations failed", "error", err)
		os.Exit(1)
	}
}
