package fixtures

import (
	"math"
	"sort"

	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/pgn"
)

// ComputeStats aggregates the games username played. It reports false
// when the player has no games.
func ComputeStats(games []pgn.Game, username string) (models.PlayerStats, bool) {
	stats := models.PlayerStats{
		Username:             username,
		OpeningsDistribution: map[string]int{},
		GameLengths:          []int{},
	}

	var (
		ratingSum, oppSum float64
		opponents         = map[string]int{}
		openingWins       = map[string]int{}
	)

	for _, g := range games {
		outcome := g.Outcome(username)
		asWhite := g.White == username
		if !asWhite && g.Black != username {
			continue
		}
		stats.TotalGames++

		switch outcome {
		case "win":
			stats.Wins++
		case "loss":
			stats.Losses++
		case "draw":
			stats.Draws++
		}

		userElo, oppElo, opponent := g.WhiteElo, g.BlackElo, g.Black
		if !asWhite {
			userElo, oppElo, opponent = g.BlackElo, g.WhiteElo, g.White
		}
		ratingSum += float64(g.WhiteElo+g.BlackElo) / 2
		oppSum += float64(oppElo)
		opponents[opponent]++

		opening := pgn.MainOpening(g.Opening)
		stats.OpeningsDistribution[opening]++
		if outcome == "win" {
			openingWins[opening]++
		}
		stats.GameLengths = append(stats.GameLengths, g.Moves)

		switch {
		case oppElo > userElo:
			if outcome == "win" {
				stats.HigherEloWins++
			} else {
				stats.HigherEloLosses++
			}
		case oppElo < userElo:
			if outcome == "win" {
				stats.LowerEloWins++
			} else {
				stats.LowerEloLosses++
			}
		}
	}

	if stats.TotalGames == 0 {
		return models.PlayerStats{}, false
	}

	n := float64(stats.TotalGames)
	stats.AverageRating = math.Round(ratingSum / n)
	stats.AverageOpponentRating = oppSum / n
	stats.WinPercentage = float64(stats.Wins) / n * 100
	stats.MostCommonOpponent = mostCommon(opponents)

	for name, count := range stats.OpeningsDistribution {
		stats.Openings = append(stats.Openings, models.OpeningStat{
			Name:    name,
			Count:   count,
			Winrate: float64(openingWins[name]) / float64(count) * 100,
		})
	}
	sort.Slice(stats.Openings, func(i, j int) bool {
		if stats.Openings[i].Count != stats.Openings[j].Count {
			return stats.Openings[i].Count > stats.Openings[j].Count
		}
		return stats.Openings[i].Name < stats.Openings[j].Name
	})
	return stats, true
}

// mostCommon breaks ties by name.
func mostCommon(counts map[string]int) string {
	best, bestN := "", 0
	for name, n := range counts {
		if n > bestN || (n == bestN && name < best) {
			best, bestN = name, n
		}
	}
	return best
}
