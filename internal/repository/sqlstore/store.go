// Package sqlstore persists chats in SQLite or MySQL through database/sql.
// Timestamps are stored as Unix microseconds so both dialects sort and scan
// them the same way.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialects
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// Store wraps a database/sql handle for one dialect
type Store struct {
	DB      *sql.DB
	dialect string
}

// Open connects to the database. For SQLite dsn is a file path or ":memory:".
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	var driverName string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
	case DialectMySQL:
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("unsupported sql dialect: %q", dialect)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// SQLite allows one writer; a single connection also keeps
		// ":memory:" databases alive across calls.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	s := &Store{DB: db, dialect: dialect}
	if dialect == DialectSQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return s, nil
}

// Dialect returns the SQL dialect of the store
func (s *Store) Dialect() string {
	return s.dialect
}

// EnsureSchema creates tables and indexes when they are missing
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := sqliteSchema
	if s.dialect == DialectMySQL {
		statements = mysqlSchema
	}

	for _, stmt := range statements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			if s.dialect == DialectMySQL && isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"))
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}

// isDuplicateIndex matches ER_DUP_KEYNAME; MySQL has no CREATE INDEX IF NOT EXISTS.
func isDuplicateIndex(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1061
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL REFERENCES users(id),
		title      TEXT NOT NULL,
		position   INTEGER NOT NULL,
		brief      TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chats_owner_position ON chats (owner_id, position, id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		chat_id    TEXT NOT NULL REFERENCES chats(id),
		role       TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content    TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages (chat_id, created_at, id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36) PRIMARY KEY,
		email         VARCHAR(255) NOT NULL UNIQUE,
		name          VARCHAR(100) NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at    BIGINT NOT NULL,
		updated_at    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id         CHAR(36) PRIMARY KEY,
		owner_id   CHAR(36) NOT NULL,
		title      VARCHAR(200) NOT NULL,
		position   INT NOT NULL,
		brief      TEXT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES users(id)
	)`,
	`CREATE INDEX idx_chats_owner_position ON chats (owner_id, position, id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id         CHAR(36) PRIMARY KEY,
		chat_id    CHAR(36) NOT NULL,
		role       VARCHAR(16) NOT NULL,
		content    MEDIUMTEXT NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (chat_id) REFERENCES chats(id)
	)`,
	`CREATE INDEX idx_messages_chat_created ON messages (chat_id, created_at, id)`,
}
