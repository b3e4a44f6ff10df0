package main

import (
	"log"
	"os"

	"github.com/pressly/goose/v3"

	"mangareader/migrations"
	"mangareader/pkg/config"
	"mangareader/pkg/database"
)

func main() {
	configPath := os.Getenv("MANGAREADER_CONFIG")
	if configPath == "" {
		configPath = "./configs/development.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewDB(database.ConfigFrom(cfg.Database))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set dialect: %v", err)
	}

	log.Printf("Running migrations: %s", command)
	switch command {
	case "up":
		if err := goose.Up(db.DB, "."); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations completed successfully")
	case "down":
		if err := goose.Down(db.DB, "."); err != nil {
			log.Fatalf("Failed to rollback migration: %v", err)
		}
		log.Println("Rollback completed successfully")
	case "reset":
		if err := goose.Reset(db.DB, "."); err != nil {
			log.Fatalf("Failed to reset migrations: %v", err)
		}
		log.Println("Reset completed successfully")
	case "status":
		if err := goose.Status(db.DB, "."); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
	case "version":
		version, err := goose.GetDBVersion(db.DB)
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		log.Printf("Current migration version: %d", version)
	default:
		log.Fatalf("Unknown command: %s. Available commands: up, down, reset, status, version", command)
	}
}
