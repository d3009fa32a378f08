// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

const (
	// PlaceholderNickname marks a profile that has not finished onboarding.
	PlaceholderNickname = "익명"
	// DefaultNickname is used when the identity carries no display name.
	DefaultNickname = "사용자"
)

// User is the public profile of an authenticated account. ID mirrors the
// identity provider's subject. Authors embedded in posts and comments carry
// only id, nickname and avatar_url; the other fields are omitted when unset.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Email     string    `gorm:"index" json:"email,omitempty"`
	Nickname  string    `gorm:"size:20;not null" json:"nickname"`
	AvatarURL *string   `json:"avatar_url"`
	Bio       *string   `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// IsComplete reports whether onboarding has been finished.
func (u *User) IsComplete() bool {
	nickname := strings.TrimSpace(u.Nickname)
	return nickname != "" && nickname != PlaceholderNickname
}
