package models

import (
	"encoding/json"
	"time"
)

// Blog bounds enforced before any write happens.
const (
	TitleMinLen  = 3
	TitleMaxLen  = 160
	BodyMinLen   = 100
	BodyMaxLen   = 2000000
	PhotoMaxSize = 1 << 20 // 1MB
)

// BlogAuthor is the author as embedded in blog payloads. Queries run against
// the users table; serialization is restricted to public identity fields so
// listings never carry emails or hashes.
type BlogAuthor User

// TableName keeps the association reading from the users table.
func (BlogAuthor) TableName() string { return "users" }

// MarshalJSON exposes only the fields public blog routes may show.
func (a BlogAuthor) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"_id":      a.ID,
		"name":     a.Name,
		"username": a.Username,
		"profile":  a.Profile,
	})
}

// Blog is a published post. The slug is assigned from the title on create and
// never changes afterwards, even when the title is edited.
type Blog struct {
	ID               uint       `gorm:"primaryKey" json:"_id"`
	Title            string     `gorm:"size:160;not null" json:"title"`
	Slug             string     `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Body             string     `gorm:"type:longtext;not null" json:"body,omitempty"`
	Excerpt          string     `gorm:"size:1000" json:"excerpt"`
	MetaTitle        string     `gorm:"size:255" json:"mtitle"`
	MetaDescription  string     `gorm:"size:255" json:"mdesc"`
	Photo            []byte     `gorm:"type:mediumblob" json:"-"`
	PhotoContentType string     `gorm:"size:64" json:"-"`
	AuthorID         uint       `gorm:"index;not null" json:"-"`
	Author           BlogAuthor `gorm:"foreignKey:AuthorID" json:"postedBy"`
	Categories       []Category `gorm:"many2many:blog_categories;" json:"categories"`
	Tags             []Tag      `gorm:"many2many:blog_tags;" json:"tags"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
