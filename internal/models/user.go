// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account. Email is the login identifier;
// Balance is the in-app currency moved by conspect unlocks.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64" json:"name"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Bio       string    `gorm:"size:256" json:"bio"`
	Avatar    string    `json:"avatar"`
	Balance   int       `gorm:"not null;default:300" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Classrooms []Classroom `gorm:"foreignKey:HostID" json:"classrooms,omitempty"`
	Messages   []Message   `gorm:"foreignKey:AuthorID" json:"messages,omitempty"`
}

// DefaultBalance is the starting balance granted on registration.
const DefaultBalance = 300
