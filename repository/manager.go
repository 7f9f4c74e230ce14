package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/config"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Manager owns the token store selected by configuration and the connection
// behind it.
type Manager struct {
	driver string
	tokens signup.TokenStore
	closer func() error
}

// Open builds the token store for cfg.Driver. Sqlite stores get their schema
// created, redis stores are pinged.
func Open(ctx context.Context, cfg config.StorageConfig) (*Manager, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return &Manager{
			driver: config.DriverMemory,
			tokens: signup.NewMemoryTokenStore(),
			closer: func() error { return nil },
		}, nil

	case config.DriverSQLite:
		if dir := sqliteDir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create sqlite directory").
					WithMetadata(map[string]any{"dir": dir})
			}
		}

		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database").
				WithMetadata(map[string]any{"dsn": cfg.DSN})
		}
		sqldb.SetMaxOpenConns(1)

		db := bun.NewDB(sqldb, sqlitedialect.New())
		store := NewBunTokenStore(db)
		if err := store.CreateSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}

		return &Manager{
			driver: config.DriverSQLite,
			tokens: store,
			closer: db.Close,
		}, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "redis is unreachable").
				WithMetadata(map[string]any{"addr": cfg.Redis.Addr})
		}

		return &Manager{
			driver: config.DriverRedis,
			tokens: NewRedisTokenStore(client, cfg.Redis.Key),
			closer: client.Close,
		}, nil
	}

	return nil, goerrors.New("unknown storage driver", goerrors.CategoryBadInput).
		WithMetadata(map[string]any{"driver": cfg.Driver})
}

// sqliteDir returns the directory holding a file backed DSN, empty for
// in-memory databases or files in the working directory.
func sqliteDir(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	path, query, _ := strings.Cut(path, "?")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	if dir := filepath.Dir(path); dir != "." {
		return dir
	}
	return ""
}

func (m *Manager) Driver() string {
	return m.driver
}

func (m *Manager) Tokens() signup.TokenStore {
	return m.tokens
}

func (m *Manager) Validate() error {
	if m == nil || m.tokens == nil {
		return errors.New("repository token store should be initialized")
	}
	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) Close() error {
	if m == nil || m.closer == nil {
		return nil
	}
	return m.closer()
}
