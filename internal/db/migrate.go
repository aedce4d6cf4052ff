package db

import (
	"bookcourier/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// Models lists every table owned by the backend, in dependency order
var Models = []any{
	&domain.User{},
	&domain.Book{},
	&domain.Order{},
	&domain.Review{},
	&domain.WishlistItem{},
	&domain.Payment{},
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	logrus.WithField("tables", len(Models)).Info("Migration completed.") // Log successful migration
	return nil
}
