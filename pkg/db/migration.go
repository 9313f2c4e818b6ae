package db

import (
	"context"
	"database/sql"
	"embed"
	"sync"

	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// goose keeps its dialect and filesystem in package globals.
var gooseMu sync.Mutex

// Migrate applies the embedded migrations for the handle's driver.
func (r *DB) Migrate(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(logger.GetLogger())

	switch r.config.Driver {
	case DriverPostgres:
		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		conn, err := newSqlConnection(r.config.PostgresWrite)
		if err != nil {
			return errors.Wrap(err, "open migration connection")
		}
		defer conn.Close()
		return up(ctx, conn, "migrations/postgres")
	default:
		if err := goose.SetDialect("sqlite3"); err != nil {
			return err
		}
		conn, err := r.writeConn()
		if err != nil {
			return err
		}
		return up(ctx, conn, "migrations/sqlite")
	}
}

func up(ctx context.Context, conn *sql.DB, dir string) error {
	if err := goose.UpContext(ctx, conn, dir); err != nil {
		return errors.Wrapf(err, "migrate %s", dir)
	}
	return nil
}
