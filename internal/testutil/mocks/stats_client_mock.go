package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/statsapi"
)

// MockStatsClient is a mock implementation of statsapi.ClientInterface
type MockStatsClient struct {
	mock.Mock
}

var _ statsapi.ClientInterface = (*MockStatsClient)(nil)

func (m *MockStatsClient) FetchPlayerStats(ctx context.Context, username string) (*models.PlayerStats, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStats), args.Error(1)
}

func (m *MockStatsClient) RunClustering(ctx context.Context, params models.ClusterQueryParams) (*models.ClusteringResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ClusteringResponse), args.Error(1)
}

func (m *MockStatsClient) ComparePlayers(ctx context.Context, player1, player2 string) (*models.ComparisonResult, error) {
	args := m.Called(ctx, player1, player2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ComparisonResult), args.Error(1)
}

func (m *MockStatsClient) ExampleUsernames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStatsClient) TopPlayers(ctx context.Context) ([]models.PlayerStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlayerStats), args.Error(1)
}
