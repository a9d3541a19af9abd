package models

// Topic is a free-text tag attached to classrooms. Topics are created
// lazily: the first classroom written with a given name creates the row,
// later writes reuse it.
type Topic struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null" json:"name"`
}
