package seed

import (
	"fmt"

	"yatube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInGroups are created on every fresh install.
var BuiltInGroups = []models.Group{
	{Title: "Cats", Slug: "cats", Description: "Everything about cats."},
	{Title: "Books", Slug: "books", Description: "What we read and what we think of it."},
	{Title: "Travel", Slug: "travel", Description: "Trips, routes and photos from the road."},
	{Title: "Programming", Slug: "programming", Description: "Code, tools and late-night debugging."},
	{Title: "Music", Slug: "music", Description: "Albums, concerts and playlists."},
}

// Groups inserts BuiltInGroups, leaving groups that already exist untouched.
func Groups(db *gorm.DB) ([]models.Group, error) {
	out := make([]models.Group, 0, len(BuiltInGroups))
	for _, item := range BuiltInGroups {
		g := item
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&g).Error; err != nil {
			return nil, fmt.Errorf("seed group %s: %w", item.Slug, err)
		}
		var stored models.Group
		if err := db.Where("slug = ?", item.Slug).First(&stored).Error; err != nil {
			return nil, fmt.Errorf("load group %s: %w", item.Slug, err)
		}
		out = append(out, stored)
	}
	return out, nil
}
