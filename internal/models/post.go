package models

import "time"

// Post is a single entry in the feeds.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	PubDate   time.Time `gorm:"column:pub_date;autoCreateTime;index:idx_posts_pub_date" json:"pub_date"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Post) TableName() string {
	return "posts"
}

// Excerpt returns the first n runes of the text, used as the page title on detail views.
func (p Post) Excerpt(n int) string {
	r := []rune(p.Text)
	if len(r) <= n {
		return p.Text
	}
	return string(r[:n])
}
