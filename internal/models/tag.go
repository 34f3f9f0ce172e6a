package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
)

// TagScope restricts where a tag may be used.
type TagScope string

const (
	ScopeGlobal   TagScope = "global"
	ScopeCategory TagScope = "category"
	ScopeArea     TagScope = "area"
)

func ParseTagScope(s string) (TagScope, error) {
	switch sc := TagScope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return ScopeGlobal, nil
	case ScopeGlobal, ScopeCategory, ScopeArea:
		return sc, nil
	default:
		return "", fmt.Errorf("%w: unknown tag scope %q", common.ErrValidation, s)
	}
}

// Tag is a label attachable to many items. ScopeID points to the category
// or area the tag is limited to and is zero for global tags.
type Tag struct {
	ID        int64
	Name      string
	Color     string
	Scope     TagScope
	ScopeID   int64
	CreatedAt time.Time
}

// TagUsage pairs a tag with the number of items carrying it.
type TagUsage struct {
	Tag
	Count int64
}
