package infra

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joaquin771/rentalia/internal/model"
)

// NewDatabase opens the postgres connection backing the local identity
// provider and runs its schema migration.
func NewDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.Usuario{}); err != nil {
		return nil, err
	}

	return db, nil
}
