// Package seed provides helpers to create demo data for the blog. These
// helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every generated user.
const DemoPassword = "yatube-demo-password"

// SeedOptions tune how much data the factory generates.
type SeedOptions struct {
	NumUsers       int
	NumPosts       int
	FollowsPerUser int
	// MaxDays spreads publication dates over the last MaxDays days.
	MaxDays int
	// FastHash uses the minimum bcrypt cost.
	FastHash bool
	DryRun   bool
	Clean    bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rnd  *rand.Rand
	hash string
	seq  int
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // weak randomness is fine for demo data
	return &Factory{db: db, opts: opts, rnd: rand.New(rand.NewSource(time.Now().UnixNano())), nextID: 1000}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.FastHash {
		cost = bcrypt.MinCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return "", err
	}
	f.hash = string(h)
	return f.hash, nil
}

// CreateUser persists a generated user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	f.seq++
	user := &models.User{
		Username:  strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, f.seq)),
		Email:     gofakeit.Email(),
		FirstName: first,
		LastName:  last,
		Password:  hash,
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by author, optionally in group, with a
// publication date somewhere in the last MaxDays days.
func (f *Factory) BuildPost(author *models.User, group *models.Group) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute

	post := &models.Post{
		Text:     gofakeit.Paragraph(1, f.rnd.Intn(4)+1, 12, "\n"),
		AuthorID: author.ID,
		PubDate:  time.Now().Add(-back),
	}
	if group != nil {
		post.GroupID = &group.ID
	}
	return post
}

// CreatePostsBatch persists posts in chunks.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Omit("Author", "Group").CreateInBatches(posts, 200).Error
}

// Follow subscribes user to author, ignoring existing pairs and self-follows.
func (f *Factory) Follow(user, author *models.User) error {
	if user.ID == author.ID || f.opts.DryRun {
		return nil
	}
	row := &models.Follow{UserID: user.ID, AuthorID: author.ID}
	return f.db.Omit("User", "Author").Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}
