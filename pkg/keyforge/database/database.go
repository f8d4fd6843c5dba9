package database

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the database and returns the handle.
// An empty DSN opens an in-memory database; pass a file path to keep
// state across restarts.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}
