// Package main provides operator utilities for the blog.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"reflect"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/repository"
	"yatube/internal/service"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create-group <slug> <title> [description]  - Create a group")
	fmt.Println("  go run ./cmd/admin list-groups                               - List all groups")
	fmt.Println("  go run ./cmd/admin clear-cache                               - Drop cached pages")
	fmt.Println("  go run ./cmd/admin config                                    - Print effective config")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch command := os.Args[1]; command {
	case "create-group":
		if len(os.Args) < 4 {
			fmt.Println("Usage: go run ./cmd/admin create-group <slug> <title> [description]")
			os.Exit(1)
		}
		description := ""
		if len(os.Args) > 4 {
			description = strings.Join(os.Args[4:], " ")
		}
		createGroup(ctx, mustConnect(cfg), os.Args[2], os.Args[3], description)

	case "list-groups":
		listGroups(ctx, mustConnect(cfg))

	case "clear-cache":
		clearCache(ctx, cfg)

	case "config":
		if err := dumpConfig(os.Stdout, cfg); err != nil {
			log.Fatalf("Failed to print config: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func mustConnect(cfg *config.Config) *gorm.DB {
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func createGroup(ctx context.Context, db *gorm.DB, slug, title, description string) {
	groups := service.NewGroupService(repository.NewGroupRepository(db))
	group, err := groups.Create(ctx, slug, title, description)
	if err != nil {
		log.Fatalf("Failed to create group: %v", err)
	}
	fmt.Printf("✓ Group %q created (id=%d, url=/group/%s/)\n", group.Title, group.ID, group.Slug)
}

func listGroups(ctx context.Context, db *gorm.DB) {
	groups, err := service.NewGroupService(repository.NewGroupRepository(db)).List(ctx)
	if err != nil {
		log.Fatalf("Failed to list groups: %v", err)
	}
	if len(groups) == 0 {
		fmt.Println("No groups found")
		return
	}
	fmt.Println("Groups:")
	for _, g := range groups {
		fmt.Printf("  %-20s %s\n", g.Slug, g.Title)
	}
}

func clearCache(ctx context.Context, cfg *config.Config) {
	rdb := cache.InitRedis(cfg.RedisURL)
	if rdb == nil {
		log.Fatal("Redis is not configured or unreachable")
	}
	defer func() { _ = rdb.Close() }()

	n, err := cache.ClearPages(ctx, rdb)
	if err != nil {
		log.Fatalf("Failed to clear page cache: %v", err)
	}
	fmt.Printf("✓ Removed %d cached pages\n", n)
}

var secretKeys = map[string]bool{
	"DB_PASSWORD":          true,
	"JWT_SECRET":           true,
	"S3_ACCESS_KEY_ID":     true,
	"S3_SECRET_ACCESS_KEY": true,
}

// dumpConfig writes cfg as YAML keyed by environment variable name.
func dumpConfig(w *os.File, cfg *config.Config) error {
	out := map[string]any{}
	v := reflect.ValueOf(*cfg)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		value := v.Field(i).Interface()
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		if secretKeys[key] && value != "" {
			value = "********"
		}
		out[key] = value
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
