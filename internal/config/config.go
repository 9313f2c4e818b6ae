package config

import (
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/baki-ledger/pkg/db"
	"github.com/nimasrn/baki-ledger/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every setting the binaries read. Nothing else in the module
// looks at the environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=baki"`
	AppDebug            bool   `env:"APP_DEBUG,default=false"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr string `env:"HTTP_LISTEN_ADDR,default=127.0.0.1:8080"`

	DBDriver   string `env:"DB_DRIVER,default=sqlite"`
	SQLitePath string `env:"SQLITE_PATH,default=baki.db"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE,default=0"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=baki:"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	RenamePolicy          string `env:"RENAME_POLICY,default=reject"`
	RecentWindowHours     int    `env:"RECENT_WINDOW_HOURS,default=168"`
	IdempotencyTTLSeconds int    `env:"IDEMPOTENCY_TTL_SECONDS,default=86400"`
	FeedStream            string `env:"FEED_STREAM,default=ledger:events"`
	FeedMaxLen            int64  `env:"FEED_MAX_LEN,default=10000"`
	ReconcileWorkers      int    `env:"RECONCILE_WORKERS,default=4"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	_, err = env.UnmarshalFromEnviron(c)
	if err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// DBConfig translates the store settings into a pkg/db handle config.
func (c *Config) DBConfig() db.Config {
	return db.Config{
		Driver:     c.DBDriver,
		SQLitePath: c.SQLitePath,
		PostgresRead: db.PostgresConfig{
			User:     c.PostgresReadUser,
			Host:     c.PostgresReadHost,
			Port:     c.PostgresReadPort,
			Password: c.PostgresReadPassword,
			Database: c.PostgresReadDatabase,
		},
		PostgresWrite: db.PostgresConfig{
			User:     c.PostgresWriteUser,
			Host:     c.PostgresWriteHost,
			Port:     c.PostgresWritePort,
			Password: c.PostgresWritePassword,
			Database: c.PostgresWriteDatabase,
		},
		Debug: c.AppDebug,
	}
}

func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.RecentWindowHours) * time.Hour
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLSeconds) * time.Second
}

// EnvPathFromArgs returns the file passed as --env=<path>, or "" when the
// flag is absent or the file cannot be opened.
func EnvPathFromArgs(args []string) string {
	for _, v := range args {
		path, ok := strings.CutPrefix(v, "--env=")
		if !ok {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			logger.Error("failed to open the passed env file", "path", path, "error", err)
			return ""
		}
		_ = f.Close()
		return path
	}
	return ""
}
