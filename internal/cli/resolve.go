package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/models"
	"github.com/spf13/pflag"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not an id", common.ErrValidation, s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// The resolvers below accept a numeric id or a name.

func (r *runner) categoryID(ctx context.Context, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		c, err := r.app.Categories.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return c.ID, nil
	}
	c, err := r.app.Categories.GetByName(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("category %q: %w", ref, err)
	}
	return c.ID, nil
}

func (r *runner) areaID(ctx context.Context, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		a, err := r.app.Areas.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return a.ID, nil
	}
	a, err := r.app.Areas.GetByName(ctx, ref)
	if err != nil {
		return 0, fmt.Errorf("area %q: %w", ref, err)
	}
	return a.ID, nil
}

// tagID resolves an id or the name of a global tag.
func (r *runner) tagID(ctx context.Context, ref string) (int64, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		t, err := r.app.Tags.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return t.ID, nil
	}
	t, err := r.app.Tags.Find(ctx, ref, models.ScopeGlobal, 0)
	if err != nil {
		return 0, fmt.Errorf("tag %q: %w", ref, err)
	}
	return t.ID, nil
}

// filterFlags are the structured search criteria shared by list and search.
type filterFlags struct {
	category  string
	tags      []string
	area      string
	favorites bool
	used      bool
	since     string
	until     string
	limit     int
}

func (f *filterFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.category, "category", "", "only items in this category")
	fs.StringSliceVar(&f.tags, "tag", nil, "only items carrying this tag (repeatable, all must match)")
	fs.StringVar(&f.area, "area", "", "only items in this area")
	fs.BoolVar(&f.favorites, "fav", false, "only favorites")
	fs.BoolVar(&f.used, "used", false, "only items used at least once")
	fs.StringVar(&f.since, "since", "", "modified at or after this date (e.g. 2024-05-01, \"May 1 2024\")")
	fs.StringVar(&f.until, "until", "", "modified before this date")
	fs.IntVar(&f.limit, "limit", 0, "maximum number of results (0 = no limit)")
}

// parseDate returns the zero time for an empty string.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateparse.ParseIn(s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q: %v", common.ErrValidation, s, err)
	}
	return t, nil
}

func (r *runner) buildFilter(ctx context.Context, ff *filterFlags, text string) (models.Filter, error) {
	f := models.Filter{
		FavoritesOnly: ff.favorites,
		UsedOnly:      ff.used,
		Text:          text,
		Limit:         ff.limit,
	}
	var err error
	if ff.category != "" {
		if f.CategoryID, err = r.categoryID(ctx, ff.category); err != nil {
			return f, err
		}
	}
	if ff.area != "" {
		if f.AreaID, err = r.areaID(ctx, ff.area); err != nil {
			return f, err
		}
	}
	for _, ref := range ff.tags {
		id, err := r.tagID(ctx, ref)
		if err != nil {
			return f, err
		}
		f.TagIDs = append(f.TagIDs, id)
	}
	if f.From, err = parseDate(ff.since); err != nil {
		return f, err
	}
	if f.To, err = parseDate(ff.until); err != nil {
		return f, err
	}
	return f, nil
}
