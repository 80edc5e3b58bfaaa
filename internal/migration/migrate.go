package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// Embed SQL files from the local migrations folder
//
//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	schemaName   = "tickr"
	versionTable = schemaName + ".goose_db_version"
)

// RunMigrations brings the tickr schema up to the latest embedded version.
func RunMigrations(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	log := logger.With().Str("component", "migration").Logger()

	// Ensure the schema exists before goose creates its version table inside it.
	if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schemaName); err != nil {
		return fmt.Errorf("create schema %s: %w", schemaName, err)
	}

	goose.SetBaseFS(embeddedMigrations)
	goose.SetTableName(versionTable)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.Info().Int64("version", version).Msg("Migrations completed successfully")
	return nil
}

// GooseAdapter routes goose output through zerolog.
type GooseAdapter struct {
	logger zerolog.Logger
}

func NewGooseAdapter(logger zerolog.Logger) *GooseAdapter {
	return &GooseAdapter{logger: logger.With().Str("component", "goose").Logger()}
}

func (g *GooseAdapter) Printf(format string, v ...interface{}) {
	g.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *GooseAdapter) Fatalf(format string, v ...interface{}) {
	g.logger.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
