package db

import (
	"fmt"  // Error wrapping
	"time" // Logger thresholds

	"wallet_ledger/internal/config" // Database settings

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/driver/mysql"       // MySQL driver for GORM
	"gorm.io/driver/postgres"    // PostgreSQL driver for GORM
	"gorm.io/gorm"               // GORM ORM library
	"gorm.io/gorm/logger"        // GORM logger
)

// Dialector picks the GORM driver for the configured database
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	dsn, err := cfg.DSN() // Driver specific DSN
	if err != nil {
		return nil, err
	}
	switch cfg.DBDriver {
	case config.DriverMySQL:
		return mysql.Open(dsn), nil
	default:
		return postgres.Open(dsn), nil
	}
}

// Options returns the GORM settings shared by every connection.
// TranslateError turns driver constraint errors into gorm.ErrForeignKeyViolated and friends.
func Options(log logrus.FieldLogger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond, // Flag slow queries
			LogLevel:                  logger.Warn,            // Only warnings and errors
			IgnoreRecordNotFoundError: true,                   // Missing wallets are not log-worthy
		}),
	}
}

// Open connects to the database and configures the connection pool.
// The returned handle must be released with Close.
func Open(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(dialector, Options(log))
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)       // Maximum number of open connections
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)       // Maximum number of idle connections
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime) // Maximum lifetime of a connection
	log.WithFields(logrus.Fields{
		"driver": cfg.DBDriver,
		"host":   cfg.DBHost,
		"db":     cfg.DBName,
	}).Info("Database connected")
	return gdb, nil
}

// Close releases the underlying connection pool
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
