// Package store persists articles and their analyses in SQL. SQLite is the
// default backend; Postgres is supported for shared deployments.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/dgallion1/bulletinlens/internal/article"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// insertBatch bounds rows per INSERT to stay under bind-variable limits.
const insertBatch = 500

// Store is the article record store.
type Store struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
}

// Open connects to the database, verifies the connection and creates the
// schema if needed.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var schema []string
	sb := sq.StatementBuilder
	switch driver {
	case DriverSQLite:
		schema = sqliteSchema
		sb = sb.PlaceholderFormat(sq.Question)
	case DriverPostgres:
		schema = postgresSchema
		sb = sb.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	if driver == DriverSQLite && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A single connection keeps writes serialized.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	return &Store{db: db, driver: driver, sb: sb}, nil
}

// OpenSQLite opens a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	return Open(ctx, DriverSQLite, path)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the driver name the store was opened with.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL DEFAULT '',
	article_text TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS article_analysis (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT,
	article_text TEXT,
	sentiment TEXT,
	polarity REAL,
	subjectivity REAL,
	coherence REAL,
	topics TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_sentiment ON article_analysis(sentiment)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	article_text TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS article_analysis (
	id BIGSERIAL PRIMARY KEY,
	title TEXT,
	article_text TEXT,
	sentiment TEXT,
	polarity DOUBLE PRECISION,
	subjectivity DOUBLE PRECISION,
	coherence DOUBLE PRECISION,
	topics TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_sentiment ON article_analysis(sentiment)`,
}

// exec builds and runs one statement.
func exec(ctx context.Context, tx *sql.Tx, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

// inTx runs fn in a transaction, committing on success.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) insertArticles(ctx context.Context, tx *sql.Tx, arts []article.Article) error {
	for start := 0; start < len(arts); start += insertBatch {
		end := min(start+insertBatch, len(arts))
		ins := s.sb.Insert("articles").Columns("title", "article_text")
		for _, a := range arts[start:end] {
			ins = ins.Values(a.Title, a.Body)
		}
		if err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert articles: %w", err)
		}
	}
	return nil
}
