// Command seed fills the dashboard tables with generated data.
package main

import (
	"context"
	"flag"
	"log"

	"postdeck/internal/config"
	"postdeck/internal/database"
	"postdeck/internal/seed"
)

func main() {
	// Parse command line flags
	numPosts := flag.Int("posts", 20, "Number of scheduled posts to create")
	maxDays := flag.Int("days", 14, "Spread scheduled posts over this many days")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 picks one from the clock")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixture := flag.String("fixture", "", "YAML fixture applied after the generated data")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d posts over %d days, clean=%v\n", *numPosts, *maxDays, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.Options{
		Seed:        *randSeed,
		Posts:       *numPosts,
		MaxDays:     *maxDays,
		ShouldClean: *shouldClean,
		FixturePath: *fixture,
	})

	res, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Done: %d accounts, %d posts, %d snapshots, %d settings\n",
		res.Accounts, res.Posts, res.Snapshots, res.Settings)
}
