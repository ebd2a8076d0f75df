package fixtures

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/pgn"
	"github.com/vytor/chessdash/internal/repository"
)

// ImportSummary describes one PGN import.
type ImportSummary struct {
	Games     int `json:"games"`
	Malformed int `json:"malformed"`
	Unrated   int `json:"unrated"`
	Players   int `json:"players"`
}

// Importer turns PGN collections into stored per-player stats.
type Importer struct {
	players repository.PlayerRepository
}

func NewImporter(players repository.PlayerRepository) *Importer {
	return &Importer{players: players}
}

// Import reads every game in r, drops games missing either rating and
// replaces the stats of each player seen.
func (im *Importer) Import(ctx context.Context, r io.Reader) (ImportSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("importer")

	texts, err := pgn.SplitGames(r)
	if err != nil {
		return ImportSummary{}, err
	}
	log.Info("read %d games", len(texts))

	var summary ImportSummary
	byPlayer := map[string][]pgn.Game{}
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		g, err := pgn.Parse(text)
		if err != nil {
			log.Warn("skipping game %d: %v", i+1, err)
			summary.Malformed++
			continue
		}
		if !g.Rated() {
			summary.Unrated++
			continue
		}
		summary.Games++
		byPlayer[g.White] = append(byPlayer[g.White], g)
		if g.Black != g.White {
			byPlayer[g.Black] = append(byPlayer[g.Black], g)
		}
		if summary.Games%1000 == 0 {
			log.Debug("parsed %d games so far", summary.Games)
		}
	}

	names := make([]string, 0, len(byPlayer))
	for name := range byPlayer {
		names = append(names, name)
	}
	sort.Strings(names)

	all := make([]models.PlayerStats, 0, len(names))
	for _, name := range names {
		if stats, ok := ComputeStats(byPlayer[name], name); ok {
			all = append(all, stats)
		}
	}
	if err := im.players.UpsertBatch(ctx, all); err != nil {
		return summary, fmt.Errorf("store player stats: %w", err)
	}
	summary.Players = len(all)

	log.Info("imported %d games for %d players (malformed=%d, unrated=%d)", summary.Games, summary.Players, summary.Malformed, summary.Unrated)
	return summary, nil
}
