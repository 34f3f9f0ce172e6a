package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
)

const (
	maxLabelLen    = 200
	maxCategoryLen = 50
	maxTagLen      = 50
	maxAreaLen     = 100
)

var (
	tagNamePattern  = regexp.MustCompile(`^[\p{L}\p{N} _-]+$`)
	tagColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// requireName trims s and checks it is non-empty and at most limit runes.
func requireName(what, s string, limit int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s must not be empty", common.ErrValidation, what)
	}
	if utf8.RuneCountInString(s) > limit {
		return "", fmt.Errorf("%w: %s longer than %d characters", common.ErrValidation, what, limit)
	}
	return s, nil
}

// NormalizeTagName trims and lowercases a tag name and checks its alphabet.
func NormalizeTagName(s string) (string, error) {
	name, err := requireName("tag name", strings.ToLower(s), maxTagLen)
	if err != nil {
		return "", err
	}
	if !tagNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: tag name %q may contain only letters, digits, spaces, '_' and '-'", common.ErrValidation, name)
	}
	return name, nil
}

func validateColor(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" {
		return "", nil
	}
	if !tagColorPattern.MatchString(c) {
		return "", fmt.Errorf("%w: color %q is not a hex color", common.ErrValidation, c)
	}
	return strings.ToLower(c), nil
}
