// Package repositories vends the per-entity repositories bound to a
// database handle or an open transaction.
package repositories

import (
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories/areas"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories/categories"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories/items"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories/sessions"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories/settings"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories/tags"
)

type Manager interface {
	Categories(db dbx.DBTX) categories.Repository
	Items(db dbx.DBTX) items.Repository
	Tags(db dbx.DBTX) tags.Repository
	Areas(db dbx.DBTX) areas.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Settings(db dbx.DBTX) settings.Repository
}

// SQLiteManager vends SQLite repositories. FullText tells the items
// repository whether to maintain the full-text index.
type SQLiteManager struct {
	FullText bool
}

func NewSQLiteManager(fullText bool) *SQLiteManager {
	return &SQLiteManager{FullText: fullText}
}

func (m *SQLiteManager) Categories(db dbx.DBTX) categories.Repository {
	return categories.NewSQLiteRepository(db)
}

func (m *SQLiteManager) Items(db dbx.DBTX) items.Repository {
	return items.NewSQLiteRepository(db, m.FullText)
}

func (m *SQLiteManager) Tags(db dbx.DBTX) tags.Repository {
	return tags.NewSQLiteRepository(db)
}

func (m *SQLiteManager) Areas(db dbx.DBTX) areas.Repository {
	return areas.NewSQLiteRepository(db)
}

func (m *SQLiteManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLiteRepository(db)
}

func (m *SQLiteManager) Settings(db dbx.DBTX) settings.Repository {
	return settings.NewSQLiteRepository(db)
}
