package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/chessdash/internal/db"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/repository"
	"github.com/vytor/chessdash/internal/repository/sqlite"
	"github.com/vytor/chessdash/internal/testutil"
)

type PlayerRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.PlayerRepository
}

func (s *PlayerRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.Require().NoError(db.Migrate(context.Background(), s.db))
	s.repo = sqlite.NewPlayerRepository(s.db)
}

func (s *PlayerRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func player(name string, games int) models.PlayerStats {
	return models.PlayerStats{
		Username:   name,
		TotalGames: games,
		Wins:       games,
		Openings:   []models.OpeningStat{{Name: "Italian Game", Count: games, Winrate: 100}},
	}
}

func (s *PlayerRepositorySuite) TestUpsertAndGet() {
	ctx := context.Background()

	s.Require().NoError(s.repo.Upsert(ctx, player("alice", 3)))
	got, err := s.repo.Get(ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("alice", got.Username)
	s.Equal(3, got.TotalGames)
	s.Equal([]models.OpeningStat{{Name: "Italian Game", Count: 3, Winrate: 100}}, got.Openings)

	s.Require().NoError(s.repo.Upsert(ctx, player("alice", 7)))
	got, err = s.repo.Get(ctx, "alice")
	s.Require().NoError(err)
	s.Equal(7, got.TotalGames)

	n, err := s.repo.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PlayerRepositorySuite) TestGetMissing() {
	got, err := s.repo.Get(context.Background(), "ghost")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *PlayerRepositorySuite) TestMostActiveAndMinGames() {
	ctx := context.Background()
	s.Require().NoError(s.repo.UpsertBatch(ctx, []models.PlayerStats{
		player("carol", 10), player("alice", 60), player("bob", 60), player("dan", 49), player("erin", 50),
	}))

	names, err := s.repo.MostActive(ctx, 3)
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob", "erin"}, names)

	all, err := s.repo.MostActive(ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 5)

	top, err := s.repo.WithMinGames(ctx, 50)
	s.Require().NoError(err)
	s.Require().Len(top, 3)
	s.Equal("alice", top[0].Username)
	s.Equal("erin", top[2].Username)
}

func (s *PlayerRepositorySuite) TestUpsertBatchEmpty() {
	s.NoError(s.repo.UpsertBatch(context.Background(), nil))
}

func TestPlayerRepositorySuite(t *testing.T) {
	suite.Run(t, new(PlayerRepositorySuite))
}
