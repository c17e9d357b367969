// Command seed fills the database with demo users, groups, posts and follows.
package main

import (
	"flag"
	"log"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 150, "Number of posts to create")
	follows := flag.Int("follows", 3, "Follow attempts per user")
	maxDays := flag.Int("days", 90, "Spread publication dates over this many days")
	clean := flag.Bool("clean", false, "Delete existing content before seeding")
	fast := flag.Bool("fast", false, "Use the cheapest password hash")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if _, err := seed.Seed(db, seed.SeedOptions{
		NumUsers:       *numUsers,
		NumPosts:       *numPosts,
		FollowsPerUser: *follows,
		MaxDays:        *maxDays,
		FastHash:       *fast,
		DryRun:         *dryRun,
		Clean:          *clean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("📧 All demo users have the password: %s", seed.DemoPassword)
}
