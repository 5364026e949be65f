package main

import (
	"log"

	"github.com/kindredmatch/kindred/internal/config"
	"github.com/kindredmatch/kindred/internal/db"
)

// Standalone seeder: resets the ledger and loads the demo dataset.
func main() {
	cfg := config.New()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	if err := db.SeedTestData(database); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}

	log.Println("Seeding complete.")
}
