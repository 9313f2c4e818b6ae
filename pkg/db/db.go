package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type txContextKey string

const txKey txContextKey = "trx"

const sqliteReadConns = 4

// DB is the explicit store handle passed to every repository. Writes go through
// a single-connection pool on SQLite; reads use their own pool and only ever
// observe committed data.
type DB struct {
	read   *gorm.DB
	write  *gorm.DB
	config Config
}

func gormConfig(withDebug bool) *gorm.Config {
	level := gormlogger.Silent
	if withDebug {
		level = gormlogger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
	}
}

func Open(config Config) (*DB, error) {
	switch config.Driver {
	case DriverSQLite, "":
		config.Driver = DriverSQLite
		return openSQLite(config)
	case DriverPostgres:
		return CreateReadWrite(config)
	default:
		return nil, errors.Errorf("unsupported database driver %q", config.Driver)
	}
}

func openSQLite(config Config) (*DB, error) {
	dsn, err := sqliteDSN(config.SQLitePath)
	if err != nil {
		return nil, err
	}

	write, err := gorm.Open(sqlite.Open(dsn), gormConfig(config.Debug))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite writer")
	}
	writeConn, err := write.DB()
	if err != nil {
		return nil, errors.Wrap(err, "sqlite writer pool")
	}
	writeConn.SetMaxOpenConns(1)

	if isMemory(config.SQLitePath) {
		return &DB{read: write, write: write, config: config}, nil
	}

	read, err := gorm.Open(sqlite.Open(dsn), gormConfig(config.Debug))
	if err != nil {
		_ = writeConn.Close()
		return nil, errors.Wrap(err, "open sqlite reader")
	}
	readConn, err := read.DB()
	if err != nil {
		_ = writeConn.Close()
		return nil, errors.Wrap(err, "sqlite reader pool")
	}
	readConn.SetMaxOpenConns(sqliteReadConns)

	return &DB{read: read, write: write, config: config}, nil
}

func createPostgres(config PostgresConfig, withDebug bool) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(postgresDSN(config)), gormConfig(withDebug))
}

// CreateReadWrite opens separate postgres pools for the read replica and the
// primary. An empty read host falls back to the primary.
func CreateReadWrite(config Config) (*DB, error) {
	if config.PostgresRead.Host == "" {
		config.PostgresRead = config.PostgresWrite
	}
	read, err := createPostgres(config.PostgresRead, config.Debug)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres reader")
	}
	write, err := createPostgres(config.PostgresWrite, config.Debug)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres writer")
	}
	return &DB{read: read, write: write, config: config}, nil
}

func (r *DB) Driver() string {
	return r.config.Driver
}

// WithinTransaction runs fn in a write transaction carried by ctx. A nested
// call joins the transaction already present in ctx, so the outermost caller
// decides commit or rollback.
func (r *DB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.write.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// WithinReadTransaction runs several reads against one snapshot.
func (r *DB) WithinReadTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.read.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

func (r *DB) Write(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok {
		return tx
	}
	return r.write.WithContext(ctx)
}

func (r *DB) Read(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok {
		return tx
	}
	return r.read.WithContext(ctx)
}

func (r *DB) Ping(ctx context.Context) error {
	conn, err := r.write.DB()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

func (r *DB) Close() error {
	pools := []*gorm.DB{r.write}
	if r.read != r.write {
		pools = append(pools, r.read)
	}
	var firstErr error
	for _, p := range pools {
		conn, err := p.DB()
		if err == nil {
			err = conn.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *DB) writeConn() (*sql.DB, error) {
	return r.write.DB()
}
