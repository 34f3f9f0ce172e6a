package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
)

// ContentType classifies what an item holds.
type ContentType string

const (
	ContentText ContentType = "TEXT"
	ContentURL  ContentType = "URL"
	ContentCode ContentType = "CODE"
	ContentPath ContentType = "PATH"
)

// ParseContentType accepts the type names case-insensitively.
// An empty string yields ContentText.
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(strings.ToUpper(strings.TrimSpace(s))); ct {
	case "":
		return ContentText, nil
	case ContentText, ContentURL, ContentCode, ContentPath:
		return ct, nil
	default:
		return "", fmt.Errorf("%w: unknown content type %q", common.ErrValidation, s)
	}
}

// Item is a single stored snippet.
type Item struct {
	ID         int64
	CategoryID int64
	Label      string
	Type       ContentType
	Content    Field

	Favorite      bool
	FavoriteOrder int

	UseCount   int64
	LastUsedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sensitive reports whether the item content is stored encrypted.
func (i *Item) Sensitive() bool {
	return i.Content != nil && i.Content.Sensitive()
}

// ItemView is an item with its content decrypted, as handed to callers.
// It only lives in memory.
type ItemView struct {
	Item
	Value string
	Tags  []Tag
}
