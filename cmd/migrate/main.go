package main

import (
	"wallet_ledger/internal/config" // Custom import path (Config)
	"wallet_ledger/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg, logrus.StandardLogger()) // Connect with the configured driver
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb, logrus.StandardLogger()); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err) // Leave the schema as it was
	}
}
