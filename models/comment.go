package models

import (
	"time"
)

// DeletedCommentContent replaces the body of a soft-deleted comment.
const DeletedCommentContent = "삭제된 댓글입니다."

// Comment represents a comment on a post. Replies nest one level deep.
type Comment struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	PostID     uint       `gorm:"not null;index" json:"post_id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	ParentID   *uint      `gorm:"index" json:"parent_id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	LikesCount int        `gorm:"not null;default:0" json:"likes_count"`
	IsEdited   bool       `gorm:"not null;default:false" json:"is_edited"`
	IsDeleted  bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies    []*Comment `gorm:"-" json:"replies"`
	ReplyCount int        `gorm:"-" json:"reply_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
