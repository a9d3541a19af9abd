package models

import (
	"time"
)

// Message is an append-only text post scoped to one classroom.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	ClassroomID uint      `gorm:"not null;index" json:"classroom_id"`
	Body        string    `gorm:"not null" json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
