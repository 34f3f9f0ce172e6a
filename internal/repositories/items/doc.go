// Package items persists snippets and keeps the items_fts full-text index in
// step with them.
//
// Content is stored in one column whose form follows models.Field: plain
// text for models.PlainText, sealed bytes plus a nonce for
// models.CipherText. Sensitive content is never written to the index.
//
// Create, Update and Delete issue several statements (row and index) and are
// meant to run inside dbx.WithTx.
//
//	err := dbx.WithTx(ctx, db.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return items.NewSQLiteRepository(tx, db.FullText).Create(ctx, item)
//	})
package items
