package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// MemoryPath opens a private in-memory SQLite database.
	MemoryPath = ":memory:"
)

type PostgresConfig struct {
	User     string
	Host     string
	Port     string
	Password string
	Database string
}

type Config struct {
	Driver string

	SQLitePath string

	PostgresRead  PostgresConfig
	PostgresWrite PostgresConfig

	Debug bool
}

var memorySeq atomic.Int64

func postgresDSN(config PostgresConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable", config.Host, config.User, config.Password, config.Database, config.Port)
}

// newSqlConnection opens a lib/pq handle; goose runs postgres migrations on it.
func newSqlConnection(config PostgresConfig) (*sql.DB, error) {
	return sql.Open("postgres", postgresDSN(config))
}

// sqliteDSN builds a mattn/go-sqlite3 URI. Every in-memory handle gets its own
// named shared-cache database so read and write pools see the same data while
// separate handles stay isolated.
func sqliteDSN(path string) (string, error) {
	if path == "" || path == MemoryPath {
		return fmt.Sprintf("file:ledger-%d?mode=memory&cache=shared&_foreign_keys=on", memorySeq.Add(1)), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "create database directory")
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path), nil
}

func isMemory(path string) bool {
	return path == "" || path == MemoryPath
}
