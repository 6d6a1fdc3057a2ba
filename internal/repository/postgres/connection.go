package postgres

import (
	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewConnection(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the lookup cache tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.PlayerInfo{},
		&domain.Character{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		Player:    NewPlayerRepository(db),
		Character: NewCharacterRepository(db),
	}
}
