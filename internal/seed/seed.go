package seed

import (
	"fmt"
	"log"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// Result summarizes what a Seed run created.
type Result struct {
	Users   int
	Groups  int
	Posts   int
	Follows int
}

// Seed fills the database with users, the built-in groups, posts spread over
// those groups (some without one) and a random follow graph.
func Seed(db *gorm.DB, opts SeedOptions) (*Result, error) {
	log.Printf("🌱 Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.Clean && !opts.DryRun {
		if err := Clean(db); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}

	f := NewFactory(db, opts)
	res := &Result{}

	var groups []models.Group
	if !opts.DryRun {
		var err error
		groups, err = Groups(db)
		if err != nil {
			return nil, err
		}
	}
	res.Groups = len(groups)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)
	if len(users) == 0 {
		return res, nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.rnd.Intn(len(users))]
		var group *models.Group
		// Roughly a quarter of posts stay outside any group.
		if len(groups) > 0 && f.rnd.Intn(4) != 0 {
			group = &groups[f.rnd.Intn(len(groups))]
		}
		posts = append(posts, f.BuildPost(author, group))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	if len(users) > 1 {
		for _, u := range users {
			for i := 0; i < opts.FollowsPerUser; i++ {
				author := users[f.rnd.Intn(len(users))]
				if author.ID == u.ID {
					continue
				}
				if err := f.Follow(u, author); err != nil {
					return nil, fmt.Errorf("follow: %w", err)
				}
			}
		}
	}
	if !opts.DryRun {
		var n int64
		if err := db.Model(&models.Follow{}).Count(&n).Error; err != nil {
			return nil, err
		}
		res.Follows = int(n)
	}

	log.Printf("🎉 Seeding done: %d users, %d groups, %d posts, %d follows", res.Users, res.Groups, res.Posts, res.Follows)
	return res, nil
}

// Clean deletes all blog content. Children go first so foreign keys hold.
func Clean(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&models.Follow{}, &models.Post{}, &models.Group{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
