// Package search turns a models.Filter into a query over the items table.
// Free text goes through the FTS5 index when it is available and through
// a LIKE scan otherwise.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/dbx"
	"github.com/dmitrijs2005/snipkeeper/internal/logging"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/dmitrijs2005/snipkeeper/internal/repositories"
)

// Predicate is a conjunction of SQL conditions over the items table.
type Predicate struct {
	Where string
	Args  []any
}

type Searcher struct {
	db       dbx.DBTX
	repos    repositories.Manager
	fullText bool
	log      logging.Logger
}

func New(db dbx.DBTX, repos repositories.Manager, fullText bool, log logging.Logger) *Searcher {
	return &Searcher{db: db, repos: repos, fullText: fullText, log: log}
}

// Search returns the ids of matching items, newest modification first and
// ties by ascending id. A failing full-text query is retried as a scan.
func (s *Searcher) Search(ctx context.Context, f models.Filter) ([]int64, error) {
	f = f.Normalized()
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return nil, fmt.Errorf("%w: empty date range", common.ErrValidation)
	}

	repo := s.repos.Items(s.db)
	useIndex := s.fullText && f.Text != ""

	p := Build(f, useIndex)
	ids, err := repo.Query(ctx, p.Where, p.Args, f.Limit)
	if err == nil || !useIndex {
		return ids, err
	}

	s.log.Warn(ctx, "full-text query failed, scanning instead",
		"error", errors.Join(common.ErrFullTextUnavailable, err))
	p = Build(f, false)
	return repo.Query(ctx, p.Where, p.Args, f.Limit)
}

// Build translates f into a predicate. With fullText the text criterion
// uses items_fts; otherwise it is a LIKE over labels and plain content.
func Build(f models.Filter, fullText bool) Predicate {
	var (
		conds []string
		args  []any
	)

	if f.CategoryID != 0 {
		conds = append(conds, `category_id = ?`)
		args = append(args, f.CategoryID)
	}

	if len(f.TagIDs) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?,", len(f.TagIDs)), ",")
		conds = append(conds, `id IN (SELECT item_id FROM item_tags WHERE tag_id IN (`+ph+`)
			GROUP BY item_id HAVING count(DISTINCT tag_id) = ?)`)
		for _, id := range f.TagIDs {
			args = append(args, id)
		}
		args = append(args, len(f.TagIDs))
	}

	if f.AreaID != 0 {
		conds = append(conds, `(id IN (SELECT entity_id FROM area_relations WHERE area_id = ? AND entity_type = 'item')
			OR category_id IN (SELECT entity_id FROM area_relations WHERE area_id = ? AND entity_type = 'category')
			OR id IN (SELECT it.item_id FROM item_tags it JOIN area_relations ar
				ON ar.entity_type = 'tag' AND ar.entity_id = it.tag_id WHERE ar.area_id = ?))`)
		args = append(args, f.AreaID, f.AreaID, f.AreaID)
	}

	if f.FavoritesOnly {
		conds = append(conds, `favorite = 1`)
	}
	if f.UsedOnly {
		conds = append(conds, `use_count > 0`)
	}

	if !f.From.IsZero() {
		conds = append(conds, `updated_at >= ?`)
		args = append(args, dbx.ToUnix(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, `updated_at < ?`)
		args = append(args, dbx.ToUnix(f.To))
	}

	if terms := f.Terms(); len(terms) > 0 {
		if fullText {
			conds = append(conds, `id IN (SELECT rowid FROM items_fts WHERE items_fts MATCH ?)`)
			args = append(args, MatchExpr(terms))
		} else {
			for _, term := range terms {
				pattern := "%" + escapeLike(term) + "%"
				conds = append(conds, `(label LIKE ? ESCAPE '\' OR (sensitive = 0 AND CAST(content AS TEXT) LIKE ? ESCAPE '\'))`)
				args = append(args, pattern, pattern)
			}
		}
	}

	return Predicate{Where: strings.Join(conds, " AND "), Args: args}
}

// MatchExpr quotes each term as an FTS5 string with prefix matching, so
// operators typed by the user are matched literally. All terms must match.
func MatchExpr(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.Trim(t, `"`)
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"*`)
	}
	return strings.Join(quoted, " ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
