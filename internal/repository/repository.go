// Package repository selects the persistence backend named in configuration.
package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/finance-ai/internal/config"
	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/repository/memory"
	"github.com/Rrens/finance-ai/internal/repository/mongo"
	"github.com/Rrens/finance-ai/internal/repository/postgres"
	"github.com/Rrens/finance-ai/internal/repository/sqlstore"
)

// Repositories bundles the stores of one backend
type Repositories struct {
	Driver   string
	Users    domain.UserRepository
	Chats    domain.ChatRepository
	Messages domain.MessageRepository

	ping  func(ctx context.Context) error
	close func() error
}

// Ping verifies the backend is reachable
func (r *Repositories) Ping(ctx context.Context) error {
	return r.ping(ctx)
}

// Close releases the backend connection
func (r *Repositories) Close() error {
	return r.close()
}

// Open connects to the configured storage driver
func Open(ctx context.Context, cfg config.StorageConfig) (*Repositories, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Postgres.DSN(), cfg.Postgres.MigrationsURL); err != nil {
				db.Close()
				return nil, err
			}
		}
		return &Repositories{
			Driver:   cfg.Driver,
			Users:    postgres.NewUserRepository(db),
			Chats:    postgres.NewChatRepository(db),
			Messages: postgres.NewMessageRepository(db),
			ping:     db.Ping,
			close:    func() error { db.Close(); return nil },
		}, nil

	case config.DriverSQLite, config.DriverMySQL:
		dialect, dsn := sqlstore.DialectSQLite, cfg.SQLite.Path
		if cfg.Driver == config.DriverMySQL {
			dialect, dsn = sqlstore.DialectMySQL, cfg.MySQL.DSN
		}
		store, err := sqlstore.Open(ctx, dialect, dsn)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return &Repositories{
			Driver:   cfg.Driver,
			Users:    sqlstore.NewUserRepository(store),
			Chats:    sqlstore.NewChatRepository(store),
			Messages: sqlstore.NewMessageRepository(store),
			ping:     store.Ping,
			close:    store.Close,
		}, nil

	case config.DriverMongo:
		db, err := mongo.NewDB(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Repositories{
			Driver:   cfg.Driver,
			Users:    mongo.NewUserRepository(db),
			Chats:    mongo.NewChatRepository(db),
			Messages: mongo.NewMessageRepository(db),
			ping:     db.Ping,
			close:    db.Close,
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage; data is lost on restart")
		return NewMemory(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}

// NewMemory returns repositories backed by a fresh in-memory store
func NewMemory() *Repositories {
	store := memory.NewStore()
	return &Repositories{
		Driver:   config.DriverMemory,
		Users:    memory.NewUserRepository(store),
		Chats:    memory.NewChatRepository(store),
		Messages: memory.NewMessageRepository(store),
		ping:     store.Ping,
		close:    store.Close,
	}
}
