package repository

import (
	"context"

	"github.com/vytor/chessdash/internal/models"
)

// PlayerRepository handles per-player stats data access
type PlayerRepository interface {
	Upsert(ctx context.Context, stats models.PlayerStats) error
	UpsertBatch(ctx context.Context, stats []models.PlayerStats) error
	Get(ctx context.Context, username string) (*models.PlayerStats, error)
	MostActive(ctx context.Context, limit int) ([]string, error)
	WithMinGames(ctx context.Context, minGames int) ([]models.PlayerStats, error)
	Count(ctx context.Context) (int, error)
}
