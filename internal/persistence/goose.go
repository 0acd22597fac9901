package persistence

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

type gooseRunner struct {
	db *sql.DB
}

func withGoose(dsn string, fn func(gooseRunner) error) error {
	goose.SetBaseFS(migrations)

	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return fn(gooseRunner{db: db})
}
