package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
)

// The index is kept in step by the items repository. Its rowid is the item
// id; sensitive content is indexed as an empty string.
const fullTextSchema = `CREATE VIRTUAL TABLE items_fts USING fts5(label, content, tokenize = 'unicode61')`

// createFullText creates items_fts when absent and reports whether it did.
// It is a seam for tests.
var createFullText = func(ctx context.Context, db dbx.DBTX) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'items_fts'`).Scan(&n)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := db.ExecContext(ctx, fullTextSchema); err != nil {
		return false, err
	}
	return true, nil
}

// RebuildFullText repopulates items_fts from the items table.
func RebuildFullText(ctx context.Context, db *sql.DB) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM items_fts`); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO items_fts (rowid, label, content)
			SELECT id, label, CASE WHEN sensitive = 0 THEN CAST(content AS TEXT) ELSE '' END FROM items
		`)
		if err != nil {
			return fmt.Errorf("fill index: %w", err)
		}
		return nil
	})
}
