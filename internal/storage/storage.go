// Package storage opens the embedded SQLite database, applies the schema
// migrations and sets up the full-text index.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/snipkeeper/internal/filex"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/dmitrijs2005/snipkeeper/internal/storage/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB is the single-connection handle shared by every repository.
// FullText is false when the FTS5 index could not be created; search then
// falls back to a table scan.
type DB struct {
	*sql.DB
	FullText bool
}

// migrate is a seam for tests.
var migrate = func(ctx context.Context, db *sql.DB) error {
	p, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// Open opens (creating if needed) the database at path and brings the
// schema up to date.
func Open(ctx context.Context, path string, log logging.Logger) (*DB, error) {
	if path != MemoryPath {
		if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	// one writer, and an in-memory database only lives as long as its connection
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	db := &DB{DB: conn}

	created, err := createFullText(ctx, conn)
	switch {
	case err != nil:
		log.Warn(ctx, "full-text index unavailable, search falls back to scan", "error", err)
	case created:
		if err := RebuildFullText(ctx, conn); err != nil {
			log.Warn(ctx, "full-text index rebuild failed, search falls back to scan", "error", err)
			_, _ = conn.ExecContext(ctx, `DROP TABLE IF EXISTS items_fts`)
			break
		}
		db.FullText = true
	default:
		db.FullText = true
	}

	log.Debug(ctx, "database opened", "path", path, "full_text", db.FullText)
	return db, nil
}

func dsn(path string) string {
	if path == MemoryPath {
		return MemoryPath + "?_pragma=foreign_keys(1)"
	}
	return path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
