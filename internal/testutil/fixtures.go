package testutil

import (
	"fmt"
	"time"

	"yatube/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Password is the plain-text password of every fixture user.
const Password = "correct-horse-battery"

var passwordHash string

func hashedPassword() string {
	if passwordHash == "" {
		h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		passwordHash = string(h)
	}
	return passwordHash
}

// CreateUser inserts a user whose password is Password.
func CreateUser(t TestingT, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hashedPassword(),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateGroup inserts a group with a generated title.
func CreateGroup(t TestingT, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	g := &models.Group{
		Title:       "Group " + slug,
		Slug:        slug,
		Description: "Test group " + slug,
	}
	if err := db.Create(g).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return g
}

// CreatePost inserts a post. group may be nil.
func CreatePost(t TestingT, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

// CreatePosts inserts n posts with strictly increasing pub dates, oldest first.
func CreatePosts(t TestingT, db *gorm.DB, author *models.User, group *models.Group, n int) []*models.Post {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		p := &models.Post{
			Text:     fmt.Sprintf("Post %d by %s", i+1, author.Username),
			AuthorID: author.ID,
			PubDate:  base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			p.GroupID = &group.ID
		}
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
		posts = append(posts, p)
	}
	return posts
}

// Follow inserts a follow row directly.
func Follow(t TestingT, db *gorm.DB, user, author *models.User) {
	t.Helper()
	if err := db.Create(&models.Follow{UserID: user.ID, AuthorID: author.ID}).Error; err != nil {
		t.Fatalf("follow: %v", err)
	}
}
