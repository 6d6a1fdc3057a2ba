package repository

import (
	"context"
	"errors"

	"github.com/dom/bracket-sync/internal/domain"
)

var ErrNotFound = errors.New("record not found")

type PlayerRepository interface {
	Upsert(ctx context.Context, player *domain.PlayerInfo) error
	GetByID(ctx context.Context, id string) (*domain.PlayerInfo, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.PlayerInfo, error)
}

type CharacterRepository interface {
	UpsertMany(ctx context.Context, characters []*domain.Character) error
	GetByVideogame(ctx context.Context, videogameID string) ([]*domain.Character, error)
	GetByID(ctx context.Context, id string) (*domain.Character, error)
}

// Repositories is nil when the server runs without a database.
type Repositories struct {
	Player    PlayerRepository
	Character CharacterRepository
}
