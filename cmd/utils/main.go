package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/lounge/cmd/utils/internal/commands"
)

const (
	appName    = "lounge-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	// mark-ready takes the ticket id as its first argument.
	var ticketID string
	if command == "mark-ready" {
		if len(args) == 0 {
			fmt.Println("mark-ready requires a ticket id")
			os.Exit(1)
		}
		ticketID, args = args[0], args[1:]
	}

	config, err := apt.LoadConfig("UTILS", args)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel := config.GetStringOrDef("log.level", "info")
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()

	switch command {
	case "seed-templates":
		if err := commands.SeedTemplates(ctx, config, logger); err != nil {
			log.Fatalf("❌ Template seeding failed: %v", err)
		}
		logger.Info("✅ Template seeding completed successfully")

	case "mark-ready":
		if err := commands.MarkReady(ctx, config, logger, ticketID); err != nil {
			log.Fatalf("❌ Ready request failed: %v", err)
		}
		logger.Info("✅ Ready request published", "ticket_id", ticketID)

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("❌ Database reset failed: %v", err)
		}
		logger.Info("✅ Database reset completed successfully")

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - Lounge bot utility commands

Usage:
  %s <command> [options]

Commands:
  seed-templates     Insert the house order templates (idempotent)
  mark-ready <id>    Publish a ready request for a ticket over NATS
  reset-db           Drop the lounge database and the stop list (USE WITH CAUTION)
  version            Print version information
  help               Show this help message

Environment Variables:
  UTILS_DB_MONGO_URL    MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_DB_MONGO_NAME   Database name (default: lounge)
  UTILS_NATS_URL        NATS server URL (default: nats://localhost:4222)
  UTILS_REDIS_ADDR      Redis address (default: localhost:6379)
  UTILS_LOG_LEVEL       Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-templates
  %s mark-ready 1718000000000000000
  UTILS_DB_MONGO_URL=mongodb://localhost:27017 %s reset-db

`, appName, appName, appName, appName, appName)
}
