package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/wikidb/internal/catalog"
)

// DefaultDriver is the database/sql driver name used when Options.Driver is empty.
const DefaultDriver = "sqlite3"

// DefaultMaxPoolSize bounds concurrent backend operations when Options leaves it unset.
const DefaultMaxPoolSize = 30

// Options configures Open.
type Options struct {
	Driver      string
	URL         string
	MaxPoolSize int
	Catalog     *catalog.Catalog
}

// Store provides durable storage for wiki pages.
type Store struct {
	db      *sql.DB
	queries *catalog.Catalog
}

// Open creates the connection pool and verifies the backend is reachable.
// It does not touch the schema; call EnsureSchema before serving.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Catalog == nil {
		return nil, errors.New("open store: query catalog is required")
	}
	driver := opts.Driver
	if driver == "" {
		driver = DefaultDriver
	}
	poolSize := opts.MaxPoolSize
	if poolSize <= 0 {
		poolSize = DefaultMaxPoolSize
	}

	if driver == DefaultDriver {
		if err := ensureParentDir(opts.URL); err != nil {
			return nil, fmt.Errorf("failed to prepare database directory: %w", err)
		}
	}

	db, err := sql.Open(driver, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db, queries: opts.Catalog}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats reports connection pool usage.
func (s *Store) Stats() sql.DBStats {
	return s.db.Stats()
}

// EnsureSchema creates the Pages table if it does not exist.
// Safe to call any number of times.
func (s *Store) EnsureSchema(ctx context.Context) error {
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, s.queries.SQL(catalog.CreatePagesTable))
		return err
	})
	if err != nil {
		return fmt.Errorf("create pages table: %w", err)
	}
	return nil
}

// withConn leases a connection for the duration of fn and always releases it.
func (s *Store) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// ensureParentDir creates the directory holding a file-backed SQLite database.
func ensureParentDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if strings.Contains(path[i:], "mode=memory") {
			return nil
		}
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("database parent %s is not a directory", dir)
		}
		return nil
	}
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return err
}
