package main

import (
	"log"
	"os"

	"billbook/cmd"
	"billbook/internal/config"
	"billbook/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables; a missing .env file is normal
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Use default logger config if main config fails
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		// Initialize logger with configuration
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting billbook")

	// Execute CLI commands
	cmd.Execute()

	log.Debug().Msg("billbook finished")
	os.Exit(0)
}
