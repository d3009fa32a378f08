package models

import (
	"time"
)

// Difficulty levels accepted for a workout post.
const (
	DifficultyBeginner     = "초급"
	DifficultyIntermediate = "중급"
	DifficultyAdvanced     = "고급"
)

// Post is a community workout post.
type Post struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	Title         string   `gorm:"size:50;not null" json:"title"`
	Content       string   `gorm:"type:text;not null" json:"content"`
	TopicID       *uint    `gorm:"index" json:"topic_id"`
	Difficulty    *string  `gorm:"size:10" json:"difficulty"`
	Location      *string  `json:"location"`
	InstagramLink *string  `json:"instagram_link"`
	Images        []string `gorm:"serializer:json;type:text" json:"images"`
	IsPublished   bool     `gorm:"not null;index" json:"is_published"`
	UserID        uint     `gorm:"not null;index" json:"user_id"`
	User          *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Topic         *Topic   `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
	// IsLiked reports whether the requesting user liked this post (computed)
	IsLiked   bool      `gorm:"-" json:"is_liked"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidDifficulty reports whether d is one of the accepted difficulty levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
