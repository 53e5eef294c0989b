package postgres

import (
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"

	"github.com/MrSnakeDoc/sitepulse/internal/utils"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies pending schema migrations through a database/sql
// handle borrowed from the pool.
func Migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer utils.Close(db)

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return eris.Wrap(err, "postgres: set migration dialect")
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}
