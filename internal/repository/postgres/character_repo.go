package postgres

import (
	"context"
	"errors"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type characterRepository struct {
	db *gorm.DB
}

func NewCharacterRepository(db *gorm.DB) *characterRepository {
	return &characterRepository{db: db}
}

func (r *characterRepository) UpsertMany(ctx context.Context, characters []*domain.Character) error {
	if len(characters) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(characters).Error
}

func (r *characterRepository) GetByVideogame(ctx context.Context, videogameID string) ([]*domain.Character, error) {
	var characters []*domain.Character
	err := r.db.WithContext(ctx).
		Where("videogame_id = ?", videogameID).
		Order("name ASC").
		Find(&characters).Error
	if err != nil {
		return nil, err
	}
	return characters, nil
}

func (r *characterRepository) GetByID(ctx context.Context, id string) (*domain.Character, error) {
	var character domain.Character
	err := r.db.WithContext(ctx).First(&character, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &character, nil
}
