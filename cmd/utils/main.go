package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aquamarinepk/aqm"

	"github.com/appetiteclub/ordering/internal/app"
)

const (
	appName    = "ordering-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := aqm.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := aqm.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "migrate":
		if err := app.Migrate(ctx, config, logger); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		logger.Info("Schema is up to date")

	case "recompute-load":
		ids, _ := config.GetString("kitchen.warm.restaurants")
		if err := app.RecomputeLoad(ctx, config, logger, ids); err != nil {
			log.Fatalf("Kitchen load recompute failed: %v", err)
		}
		logger.Info("Kitchen load recomputed")

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
	fmt.Printf(`%s - ordering maintenance commands

Usage:
  %s <command> [options]

Commands:
  migrate          Apply the Postgres schema or create the Mongo indexes
  recompute-load   Rebuild kitchen load snapshots
  version          Print version information
  help             Show this help message

Environment Variables:
  UTILS_DB_DRIVER                 postgres or mongo (default: postgres)
  UTILS_DB_POSTGRES_URL           Postgres connection URL
  UTILS_DB_MONGO_URL              MongoDB connection URL
  UTILS_KITCHEN_WARM_RESTAURANTS  Comma separated restaurant ids (default: all active)
  UTILS_LOG_LEVEL                 Log level (default: info)

Examples:
  %s migrate
  UTILS_DB_DRIVER=mongo %s recompute-load

`, appName, appName, appName, appName)
}
