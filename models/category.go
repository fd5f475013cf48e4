package models

import "time"

// NameMaxLen bounds category and tag names.
const NameMaxLen = 32

// Category groups blogs by topic. Removing a category clears the join rows
// but leaves referencing blogs untouched.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Name      string    `gorm:"size:32;not null" json:"name"`
	Slug      string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Blogs     []Blog    `gorm:"many2many:blog_categories;" json:"-"`
}
