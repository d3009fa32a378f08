package models

import "time"

// Topic is read-only reference data used to categorize posts.
type Topic struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description *string   `json:"description"`
	Color       *string   `gorm:"size:20" json:"color"`
	Icon        *string   `gorm:"size:50" json:"icon"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
