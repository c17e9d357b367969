package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSelfFollow is returned when a user tries to subscribe to themselves.
var ErrSelfFollow = errors.New("users cannot follow themselves")

// Follow subscribes UserID to the posts of AuthorID.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"user_id"`
	AuthorID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	User   User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Author User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// BeforeCreate rejects self-follows for every write path, including seeders.
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.UserID == f.AuthorID {
		return ErrSelfFollow
	}
	return nil
}
