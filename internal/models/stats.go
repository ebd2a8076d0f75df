package models

import (
	"encoding/json"
	"sort"
)

type OpeningStat struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Winrate float64 `json:"winrate"`
}

// PlayerStats is the per-player aggregate returned by GET /chess_stats.
type PlayerStats struct {
	Username              string         `json:"username"`
	TotalGames            int            `json:"total_games"`
	Wins                  int            `json:"wins"`
	Losses                int            `json:"losses"`
	Draws                 int            `json:"draws"`
	WinPercentage         float64        `json:"win_percentage"`
	AverageRating         float64        `json:"average_rating"`
	AverageOpponentRating float64        `json:"average_opponent_rating"`
	MostCommonOpponent    string         `json:"most_common_opponent"`
	Openings              []OpeningStat  `json:"openings"`
	OpeningsDistribution  map[string]int `json:"openings_distribution,omitempty"`
	GameLengths           []int          `json:"game_lengths"`
	HigherEloWins         int            `json:"higher_elo_wins"`
	HigherEloLosses       int            `json:"higher_elo_losses"`
	LowerEloWins          int            `json:"lower_elo_wins"`
	LowerEloLosses        int            `json:"lower_elo_losses"`
}

type namedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type namedWinrate struct {
	Name    string  `json:"name"`
	Winrate float64 `json:"winrate"`
}

// playerStatsWire accepts every observed shape of the stats payload: the
// split most_common_openings/opening_winrates arrays, a merged openings
// array, and the older win_percentage-only summary.
type playerStatsWire struct {
	Username              string         `json:"username"`
	TotalGames            *int           `json:"total_games"`
	Wins                  *int           `json:"wins"`
	Losses                *int           `json:"losses"`
	Draws                 *int           `json:"draws"`
	WinPercentage         *float64       `json:"win_percentage"`
	AverageRating         float64        `json:"average_rating"`
	AverageOpponentRating float64        `json:"average_opponent_rating"`
	MostCommonOpponent    *string        `json:"most_common_opponent"`
	Openings              []OpeningStat  `json:"openings,omitempty"`
	MostCommonOpenings    []namedCount   `json:"most_common_openings,omitempty"`
	OpeningWinrates       []namedWinrate `json:"opening_winrates,omitempty"`
	OpeningsDistribution  map[string]int `json:"openings_distribution,omitempty"`
	GameLengths           []int          `json:"game_lengths"`
	HigherEloWins         int            `json:"higher_elo_wins"`
	HigherEloLosses       int            `json:"higher_elo_losses"`
	LowerEloWins          int            `json:"lower_elo_wins"`
	LowerEloLosses        int            `json:"lower_elo_losses"`
}

func (s *PlayerStats) UnmarshalJSON(data []byte) error {
	var w playerStatsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := PlayerStats{
		Username:              w.Username,
		Wins:                  derefInt(w.Wins),
		Losses:                derefInt(w.Losses),
		Draws:                 derefInt(w.Draws),
		AverageRating:         w.AverageRating,
		AverageOpponentRating: w.AverageOpponentRating,
		OpeningsDistribution:  w.OpeningsDistribution,
		GameLengths:           w.GameLengths,
		HigherEloWins:         w.HigherEloWins,
		HigherEloLosses:       w.HigherEloLosses,
		LowerEloWins:          w.LowerEloWins,
		LowerEloLosses:        w.LowerEloLosses,
	}
	if w.MostCommonOpponent != nil {
		out.MostCommonOpponent = *w.MostCommonOpponent
	}

	if w.TotalGames != nil {
		out.TotalGames = *w.TotalGames
	} else {
		out.TotalGames = out.Wins + out.Losses + out.Draws
	}

	switch {
	case w.Wins != nil && out.TotalGames > 0:
		out.WinPercentage = float64(out.Wins) / float64(out.TotalGames) * 100
	case w.WinPercentage != nil:
		out.WinPercentage = *w.WinPercentage
	}

	out.Openings = mergeOpenings(w.Openings, w.MostCommonOpenings, w.OpeningWinrates, w.OpeningsDistribution)
	*s = out
	return nil
}

// MarshalJSON emits the merged openings plus the split arrays so either
// generation of consumer can read the payload.
func (s PlayerStats) MarshalJSON() ([]byte, error) {
	total, wins, losses, draws := s.TotalGames, s.Wins, s.Losses, s.Draws
	winPct := s.WinPercentage
	opponent := s.MostCommonOpponent
	w := playerStatsWire{
		Username:              s.Username,
		TotalGames:            &total,
		Wins:                  &wins,
		Losses:                &losses,
		Draws:                 &draws,
		WinPercentage:         &winPct,
		AverageRating:         s.AverageRating,
		AverageOpponentRating: s.AverageOpponentRating,
		Openings:              s.Openings,
		OpeningsDistribution:  s.OpeningsDistribution,
		GameLengths:           s.GameLengths,
		HigherEloWins:         s.HigherEloWins,
		HigherEloLosses:       s.HigherEloLosses,
		LowerEloWins:          s.LowerEloWins,
		LowerEloLosses:        s.LowerEloLosses,
	}
	if opponent != "" {
		w.MostCommonOpponent = &opponent
	}
	for _, o := range s.Openings {
		w.MostCommonOpenings = append(w.MostCommonOpenings, namedCount{Name: o.Name, Count: o.Count})
		w.OpeningWinrates = append(w.OpeningWinrates, namedWinrate{Name: o.Name, Winrate: o.Winrate})
	}
	if w.GameLengths == nil {
		w.GameLengths = []int{}
	}
	return json.Marshal(w)
}

func mergeOpenings(merged []OpeningStat, counts []namedCount, winrates []namedWinrate, distribution map[string]int) []OpeningStat {
	byName := map[string]*OpeningStat{}
	var order []string
	get := func(name string) *OpeningStat {
		if o, ok := byName[name]; ok {
			return o
		}
		o := &OpeningStat{Name: name}
		byName[name] = o
		order = append(order, name)
		return o
	}

	for _, o := range merged {
		e := get(o.Name)
		e.Count = o.Count
		e.Winrate = o.Winrate
	}
	for _, c := range counts {
		get(c.Name).Count = c.Count
	}
	for _, wr := range winrates {
		get(wr.Name).Winrate = wr.Winrate
	}
	for name, count := range distribution {
		if e := get(name); e.Count == 0 {
			e.Count = count
		}
	}

	if len(order) == 0 {
		return nil
	}
	out := make([]OpeningStat, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Consistent reports whether the win/loss/draw record adds up to TotalGames.
func (s PlayerStats) Consistent() bool {
	return s.Wins+s.Losses+s.Draws == s.TotalGames
}

// HigherEloWinPercentage is the win share against higher-rated opponents.
func (s PlayerStats) HigherEloWinPercentage() float64 {
	return percentage(s.HigherEloWins, s.HigherEloWins+s.HigherEloLosses)
}

// LowerEloWinPercentage is the win share against lower-rated opponents.
func (s PlayerStats) LowerEloWinPercentage() float64 {
	return percentage(s.LowerEloWins, s.LowerEloWins+s.LowerEloLosses)
}

func (s PlayerStats) AverageGameLength() float64 {
	if len(s.GameLengths) == 0 {
		return 0
	}
	sum := 0
	for _, n := range s.GameLengths {
		sum += n
	}
	return float64(sum) / float64(len(s.GameLengths))
}

func percentage(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
