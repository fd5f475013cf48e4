package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the account privilege level. Stored as a small integer but only
// ever compared through the typed constants.
type Role uint8

const (
	// RoleSubscriber is an ordinary account that may only manage its own blogs.
	RoleSubscriber Role = 0
	// RoleAdmin may act on any resource.
	RoleAdmin Role = 1
)

// User represents an account. Passwords are stored as bcrypt hashes only and
// never serialized; the photo blob is served through its own endpoint.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"_id"`
	Name             string         `gorm:"size:64;not null" json:"name"`
	Email            string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username         string         `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Profile          string         `gorm:"size:512" json:"profile"`
	PasswordHash     string         `gorm:"size:255;not null" json:"-"`
	About            string         `gorm:"size:512" json:"about"`
	Role             Role           `gorm:"default:0" json:"role"`
	Photo            []byte         `gorm:"type:mediumblob" json:"-"`
	PhotoContentType string         `gorm:"size:64" json:"-"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	Blogs            []Blog         `gorm:"foreignKey:AuthorID" json:"-"`
}

// IsAdmin reports whether the account carries the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanMutate decides whether actor may modify a resource owned by authorID.
// Administrators may mutate anything; everyone else only their own resources.
// Callers must only pass an actor that came from the authenticated principal,
// never from client-supplied fields.
func CanMutate(actor *User, authorID uint) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.ID == authorID
}

// PublicProfile returns the JSON-safe view of the account used in responses
// that embed a user. The hash and photo blob never leave the process this way.
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"_id":      u.ID,
		"name":     u.Name,
		"email":    u.Email,
		"username": u.Username,
		"profile":  u.Profile,
		"about":    u.About,
		"role":     u.Role,
	}
}
