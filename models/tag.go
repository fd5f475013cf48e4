package models

import "time"

// Tag is a free-form label attached to blogs.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Name      string    `gorm:"size:32;not null" json:"name"`
	Slug      string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Blogs     []Blog    `gorm:"many2many:blog_tags;" json:"-"`
}
