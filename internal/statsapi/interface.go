package statsapi

import (
	"context"

	"github.com/vytor/chessdash/internal/models"
)

// ClientInterface defines the remote operations the dashboard consumes.
// This interface enables testability by allowing mock implementations.
type ClientInterface interface {
	FetchPlayerStats(ctx context.Context, username string) (*models.PlayerStats, error)
	RunClustering(ctx context.Context, params models.ClusterQueryParams) (*models.ClusteringResponse, error)
	ComparePlayers(ctx context.Context, player1, player2 string) (*models.ComparisonResult, error)
	ExampleUsernames(ctx context.Context) ([]string, error)
	TopPlayers(ctx context.Context) ([]models.PlayerStats, error)
}

// Ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)
