package db

import (
	"wallet_ledger/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Migrate performs automatic migration for the ledger schema.
// Wallets are migrated before operations so the FK to wallets.id can be created.
// A nil log falls back to the standard logger.
func Migrate(gdb *gorm.DB, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := gdb.AutoMigrate(&domain.Wallet{}, &domain.Operation{}); err != nil {
		return err
	}
	log.Info("Migration completed.") // Log successful migration
	return nil
}
