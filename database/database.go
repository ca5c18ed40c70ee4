package database

import (
	"fmt"
	"time"

	"HibernateBot/logger"
	"HibernateBot/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	DB *gorm.DB
)

// Connect opens the SQLite database file at path and migrates the schema.
// The process assumes exclusive ownership of the file; there is no support
// for concurrent writers from other processes.
func Connect(path string) error {
	logger.Log.Infof("Opening database at %s", path)

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	DB = db

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// SQLite serializes writes; a single connection avoids lock contention.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := DB.AutoMigrate(&models.MemberRecord{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database models: %w", err)
	}

	return nil
}

func GetDB() *gorm.DB {
	return DB
}
