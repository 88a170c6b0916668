package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"filedrop/config"
	"filedrop/pkg/database"
	"filedrop/pkg/logger"
)

const usage = `
Filedrop - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Apply all pending migrations
  down        Roll back all migrations (drops the files table)
  status      Show the current migration version

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
  go run cmd/migrate/main.go down
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	l := logger.New(cfg.LogMode)
	defer l.Sync()

	switch command {
	case "up":
		runMigrationsUp(cfg, l)
	case "down":
		runMigrationsDown(cfg, l)
	case "status":
		showStatus(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(cfg *config.Config, l *logger.Logger) {
	log.Println("Running migrations UP...")

	if err := database.MigrateUp(cfg, l); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func runMigrationsDown(cfg *config.Config, l *logger.Logger) {
	log.Println("Rolling back migrations...")

	if err := database.MigrateDown(cfg, l); err != nil {
		log.Fatalf("Rollback failed: %v", err)
	}

	log.Println("Rollback completed successfully")
}

func showStatus(cfg *config.Config) {
	version, dirty, err := database.MigrationStatus(cfg)
	if err != nil {
		log.Fatalf("Status check failed: %v", err)
	}
	if version == 0 {
		log.Println("No migrations applied")
		return
	}
	log.Printf("Version: %d (dirty: %t)", version, dirty)
}
