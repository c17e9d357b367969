package models

import "time"

// Group is a community posts can be filed under. The slug is its only public identifier.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Slug        string    `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Group) TableName() string {
	return "groups"
}

func (g Group) String() string {
	return g.Title
}
