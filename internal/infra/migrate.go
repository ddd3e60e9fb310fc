package infra

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type gooseLogger struct {
	l Logger
}

func (g gooseLogger) Printf(format string, v ...any) { g.l.Info().Msgf(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...any) { g.l.Fatal().Msgf(format, v...) }

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB, logger Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{l: Component(logger, "migrate")})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrate: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate: up: %w", err)
	}
	return nil
}
