package models

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Filter selects items. Zero values leave a criterion unset. Every tag in
// TagIDs must be attached to a matching item. From is inclusive and To is
// exclusive, both compared against the last modification time.
type Filter struct {
	CategoryID    int64
	TagIDs        []int64
	AreaID        int64
	FavoritesOnly bool
	UsedOnly      bool
	Text          string
	From          time.Time
	To            time.Time
	Limit         int
}

// Normalized returns a copy with sorted, deduplicated tag ids and
// whitespace-collapsed text.
func (f Filter) Normalized() Filter {
	out := f
	if len(f.TagIDs) > 0 {
		ids := slices.Clone(f.TagIDs)
		slices.Sort(ids)
		out.TagIDs = slices.Compact(ids)
	}
	out.Text = strings.Join(strings.Fields(strings.ToLower(f.Text)), " ")
	if out.Limit < 0 {
		out.Limit = 0
	}
	return out
}

// Terms splits the normalized text into search terms.
func (f Filter) Terms() []string {
	return strings.Fields(strings.ToLower(f.Text))
}

// Signature is a canonical key for f: equal filters after normalization
// produce equal signatures.
func (f Filter) Signature() string {
	n := f.Normalized()

	tags := make([]string, len(n.TagIDs))
	for i, id := range n.TagIDs {
		tags[i] = strconv.FormatInt(id, 10)
	}

	return fmt.Sprintf("c=%d|t=%s|a=%d|fav=%t|used=%t|from=%d|to=%d|lim=%d|q=%q",
		n.CategoryID, strings.Join(tags, ","), n.AreaID, n.FavoritesOnly, n.UsedOnly,
		unixOrZero(n.From), unixOrZero(n.To), n.Limit, n.Text)
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
