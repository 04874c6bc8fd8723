package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"gpa-calculator/internal/models"
)

// NewSQLite opens the sqlite database at filepath (":memory:" works) and
// migrates the visit table.
func NewSQLite(filepath string) (*gorm.DB, error) {
	sqlDB, err := sql.Open("sqlite3", filepath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", filepath, err)
	}
	// sqlite serialises writers anyway, and every connection to ":memory:"
	// would otherwise see its own empty database.
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	if err := migrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Visit{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
