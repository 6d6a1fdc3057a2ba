package postgres

import (
	"context"
	"errors"

	"github.com/dom/bracket-sync/internal/domain"
	"github.com/dom/bracket-sync/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type playerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *playerRepository {
	return &playerRepository{db: db}
}

func (r *playerRepository) Upsert(ctx context.Context, player *domain.PlayerInfo) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(player).Error
}

func (r *playerRepository) GetByID(ctx context.Context, id string) (*domain.PlayerInfo, error) {
	var player domain.PlayerInfo
	err := r.db.WithContext(ctx).First(&player, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *playerRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.PlayerInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var players []*domain.PlayerInfo
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}
