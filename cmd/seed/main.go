package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/Wikid82/ballot/backend/internal/config"
	"github.com/Wikid82/ballot/backend/internal/credentials"
	"github.com/Wikid82/ballot/backend/internal/database"
	"github.com/Wikid82/ballot/backend/internal/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("✓ Database migrated successfully")

	ctx := context.Background()

	// Seed default admin account
	adminEmail := os.Getenv("BALLOT_DEFAULT_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@localhost"
	}
	adminPassword := os.Getenv("BALLOT_DEFAULT_ADMIN_PASSWORD")
	provider := credentials.NewLocalProvider(db)

	if adminPassword == "" {
		fmt.Println("  BALLOT_DEFAULT_ADMIN_PASSWORD not set, skipping admin account")
	} else {
		_, err := provider.SignUp(ctx, adminEmail, adminPassword, "Administrator")
		switch {
		case errors.Is(err, credentials.ErrEmailTaken):
			fmt.Printf("  Admin account already exists: %s\n", adminEmail)
		case err != nil:
			log.Fatalf("Failed to create admin account: %v", err)
		default:
			fmt.Printf("✓ Created admin account: %s\n", adminEmail)
		}
		if err := provider.SetAdmin(ctx, adminEmail, true); err != nil {
			log.Fatalf("Failed to grant admin rights: %v", err)
		}
	}

	// Seed a sample election
	election := models.Election{
		Title:       "Student Council 2026",
		Description: "Elect the president of the student council",
		IsActive:    true,
	}
	result := db.Where("title = ?", election.Title).FirstOrCreate(&election)
	if result.Error != nil {
		log.Fatalf("Failed to seed election: %v", result.Error)
	}
	if result.RowsAffected > 0 {
		fmt.Printf("✓ Created election: %s\n", election.Title)
	} else {
		fmt.Printf("  Election already exists: %s\n", election.Title)
	}

	candidates := []models.Candidate{
		{ElectionID: election.ID, Name: "Alex Morgan", Description: "Longer library hours"},
		{ElectionID: election.ID, Name: "Sam Rivera", Description: "More club funding"},
		{ElectionID: election.ID, Name: "Jordan Lee", Description: "Better cafeteria food"},
	}
	for _, candidate := range candidates {
		result := db.Where("election_id = ? AND name = ?", candidate.ElectionID, candidate.Name).FirstOrCreate(&candidate)
		if result.Error != nil {
			log.Printf("Failed to seed candidate %s: %v", candidate.Name, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created candidate: %s\n", candidate.Name)
		} else {
			fmt.Printf("  Candidate already exists: %s\n", candidate.Name)
		}
	}

	fmt.Println("\n✓ Database seeding completed successfully!")
}
