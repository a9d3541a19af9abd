package models

import (
	"time"
)

// Classroom is a topic-tagged discussion space owned by one host user.
// Deleting the host or the topic keeps the classroom (FKs null out);
// deleting the classroom cascades to its messages and conspects.
type Classroom struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	HostID      *uint  `gorm:"index" json:"host_id"`
	Host        *User  `gorm:"foreignKey:HostID;constraint:OnDelete:SET NULL" json:"host,omitempty"`
	TopicID     *uint  `gorm:"index" json:"topic_id"`
	Topic       *Topic `gorm:"foreignKey:TopicID;constraint:OnDelete:SET NULL" json:"topic,omitempty"`
	Name        string `gorm:"size:64;not null" json:"name"`
	Description string `gorm:"size:256" json:"description"`
	// Students is the member roster, grown as a side effect of posting.
	Students  []User     `gorm:"many2many:classroom_students" json:"students,omitempty"`
	Messages  []Message  `gorm:"foreignKey:ClassroomID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	Conspects []Conspect `gorm:"foreignKey:ClassroomID;constraint:OnDelete:CASCADE" json:"conspects,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
