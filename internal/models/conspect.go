package models

import (
	"time"
)

// UnlockPrice is the fixed, non-negotiable cost of downloading a conspect
// authored by someone else.
const UnlockPrice = 100

// Conspect is an uploaded file attachment scoped to a classroom. The
// author can always access it; anyone else pays UnlockPrice per download.
type Conspect struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AuthorID    uint   `gorm:"not null;index" json:"author_id"`
	Author      User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	ClassroomID uint   `gorm:"not null;index" json:"classroom_id"`
	Description string `gorm:"size:256" json:"description"`
	// File is the stored object name; OriginalName is what the uploader called it.
	File         string    `gorm:"not null" json:"file"`
	OriginalName string    `json:"original_name"`
	CreatedAt    time.Time `json:"created_at"`
}
