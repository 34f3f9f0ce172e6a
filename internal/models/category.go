package models

import "time"

// DefaultCategoryName is the predefined category seeded with the schema.
const DefaultCategoryName = "General"

type Category struct {
	ID         int64
	Name       string
	Icon       string
	Predefined bool
	CreatedAt  time.Time
}
