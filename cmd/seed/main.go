// Command main runs the database seeder for Hirocks.
package main

import (
	"flag"
	"log"
	"time"

	"hirocks/internal/auth"
	"hirocks/internal/config"
	"hirocks/internal/database"
	"hirocks/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 60, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	topicsOnly := flag.Bool("topics-only", false, "Only upsert the built-in topics")
	seedValue := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	tokens := flag.Int("tokens", 3, "Print development tokens for this many seeded users")
	flag.Parse()

	if err := config.LoadDotEnv(""); err != nil {
		log.Fatalf("Failed to load .env files: %v", err)
	}

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *topicsOnly {
		topics, err := seed.Topics(db)
		if err != nil {
			log.Fatalf("❌ Topic seeding failed: %v", err)
		}
		log.Printf("✨ %d topics are in place.\n", len(topics))
		return
	}

	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	s := seed.NewSeeder(db)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := s.Run(seed.Options{NumUsers: *numUsers, NumPosts: *numPosts, Seed: *seedValue})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Printf("✨ Seeded %d topics, %d users, %d posts, %d comments, %d likes.\n",
		len(res.Topics), len(res.Users), res.Posts, res.Comments, res.Likes)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, time.Duration(cfg.JWTTTLHours)*time.Hour)
	for i, u := range res.Users {
		if i >= *tokens {
			break
		}
		token, err := issuer.Issue(u.ID, u.Email, u.Nickname)
		if err != nil {
			log.Fatalf("❌ Token issue failed: %v", err)
		}
		log.Printf("🔑 %s (id=%d): %s\n", u.Nickname, u.ID, token)
	}
}
