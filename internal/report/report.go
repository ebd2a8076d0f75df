// Package report renders dashboard view-models as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/vytor/chessdash/internal/clusterview"
	"github.com/vytor/chessdash/internal/compareview"
	"github.com/vytor/chessdash/internal/drilldown"
	"github.com/vytor/chessdash/internal/models"
)

// Renderer writes tables to W. Cluster colours are drawn as swatches when
// UseColors is set.
type Renderer struct {
	W         io.Writer
	UseColors bool
}

func New(w io.Writer, useColors bool) *Renderer {
	return &Renderer{W: w, UseColors: useColors}
}

func (r *Renderer) table() *tablewriter.Table {
	return tablewriter.NewTable(r.W, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// swatch renders a hex colour as a coloured block followed by the code.
func (r *Renderer) swatch(hex string) string {
	if !r.UseColors {
		return hex
	}
	red, green, blue, ok := parseHex(hex)
	if !ok {
		return hex
	}
	return color.RGB(red, green, blue).Sprint("■") + " " + hex
}

func parseHex(hex string) (int, int, int, bool) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

// PlayerStats prints the summary and the openings table for one player.
func (r *Renderer) PlayerStats(s *models.PlayerStats) error {
	if s == nil {
		_, err := fmt.Fprintln(r.W, "no stats")
		return err
	}
	fmt.Fprintf(r.W, "\nPlayer: %s  |  Games: %d  |  W/L/D: %d/%d/%d  |  Win%%: %.1f\n",
		s.Username, s.TotalGames, s.Wins, s.Losses, s.Draws, s.WinPercentage)
	fmt.Fprintf(r.W, "Avg rating: %.0f  |  Avg opponent: %.1f  |  Most common opponent: %s  |  Avg length: %.1f moves\n",
		s.AverageRating, s.AverageOpponentRating, orDash(s.MostCommonOpponent), s.AverageGameLength())
	fmt.Fprintf(r.W, "Vs higher rated: %d-%d (%.1f%%)  |  Vs lower rated: %d-%d (%.1f%%)\n\n",
		s.HigherEloWins, s.HigherEloLosses, s.HigherEloWinPercentage(),
		s.LowerEloWins, s.LowerEloLosses, s.LowerEloWinPercentage())

	if len(s.Openings) == 0 {
		return nil
	}
	table := r.table()
	table.Header("OPENING", "GAMES", "WIN%")
	for _, o := range s.Openings {
		if err := table.Append(o.Name, strconv.Itoa(o.Count), fmt.Sprintf("%.1f%%", o.Winrate)); err != nil {
			return err
		}
	}
	return table.Render()
}

// Clusters prints the cluster cards, detail cards and every point.
func (r *Renderer) Clusters(vm *clusterview.ViewModel) error {
	if vm == nil {
		_, err := fmt.Fprintln(r.W, "no clustering")
		return err
	}
	fmt.Fprintf(r.W, "\nClusters: %d  |  Axes: %s × %s  |  Players: %d",
		vm.Params.NumClusters, vm.Series.XAxis, vm.Series.YAxis, len(vm.Series.Points))
	if vm.SilhouetteScore != nil {
		fmt.Fprintf(r.W, "  |  Silhouette: %.3f", *vm.SilhouetteScore)
	}
	fmt.Fprintln(r.W)
	if vm.Degraded() {
		fmt.Fprintf(r.W, "warning: %d inconsistencies in the clustering response\n", len(vm.Diagnostics))
	}
	fmt.Fprintln(r.W)

	cards := r.table()
	cards.Header("CLUSTER", "COLOR", "PLAYERS", "AVG_ELO", "AVG_OPP_ELO")
	for _, c := range vm.Clusters {
		id := strconv.Itoa(c.ID)
		if c.Synthesized {
			id += "*"
		}
		if err := cards.Append(id, r.swatch(c.Color), strconv.Itoa(c.PlayerCount),
			fmt.Sprintf("%.1f", c.AvgElo), fmt.Sprintf("%.1f", c.AvgOpponentElo)); err != nil {
			return err
		}
	}
	if err := cards.Render(); err != nil {
		return err
	}

	if len(vm.Details) > 0 {
		fmt.Fprintln(r.W)
		details := r.table()
		details.Header("CLUSTER", "COLOR", "AVG_GAMES", "VARIANTS")
		for _, d := range vm.Details {
			parts := make([]string, 0, len(d.Variants))
			for _, v := range d.Variants {
				parts = append(parts, fmt.Sprintf("%s=%.1f", v.Name, v.Average))
			}
			if err := details.Append(strconv.Itoa(d.ID), r.swatch(d.Color),
				fmt.Sprintf("%.1f", d.AvgGames), orDash(strings.Join(parts, " "))); err != nil {
				return err
			}
		}
		if err := details.Render(); err != nil {
			return err
		}
	}

	fmt.Fprintln(r.W)
	points := r.table()
	points.Header("#", "PLAYER", strings.ToUpper(string(vm.Series.XAxis)), strings.ToUpper(string(vm.Series.YAxis)), "CLUSTER", "COLOR")
	for _, p := range vm.Series.Points {
		cluster := "-"
		if p.HasCluster {
			cluster = strconv.Itoa(p.Cluster)
		}
		name := p.Player
		if p.Degraded {
			name += " (!)"
		}
		if err := points.Append(strconv.Itoa(p.Index), name, fmt.Sprintf("%.1f", p.X), fmt.Sprintf("%.1f", p.Y),
			cluster, r.swatch(p.Color)); err != nil {
			return err
		}
	}
	return points.Render()
}

// Selection prints the drill-down result for one point.
func (r *Renderer) Selection(sel drilldown.Selection) error {
	switch d := sel.Detail.(type) {
	case drilldown.ResolvedDetail:
		fmt.Fprintf(r.W, "\nSelected #%d (fetched)\n", sel.Index)
		return r.PlayerStats(d.Stats)
	case drilldown.LightweightDetail:
		fmt.Fprintf(r.W, "\nSelected #%d %s\n", sel.Index, d.Point.Player)
		table := r.table()
		table.Header("FEATURE", "VALUE")
		for _, axis := range models.Axes() {
			v, ok := d.Point.Feature(axis)
			val := "-"
			if ok {
				val = fmt.Sprintf("%.1f", v)
			}
			if err := table.Append(string(axis), val); err != nil {
				return err
			}
		}
		return table.Render()
	default:
		if sel.Err != nil {
			_, err := fmt.Fprintf(r.W, "\nSelected #%d %s: %v\n", sel.Index, sel.Player, sel.Err)
			return err
		}
		_, err := fmt.Fprintf(r.W, "\nSelected #%d %s: %s\n", sel.Index, sel.Player, sel.Status)
		return err
	}
}

// Comparison prints both panels, the optional colour-specific panels and
// the model metrics.
func (r *Renderer) Comparison(vm *compareview.ViewModel) error {
	if vm == nil {
		_, err := fmt.Fprintln(r.W, "no comparison")
		return err
	}
	fmt.Fprintf(r.W, "\n%s vs %s  |  Predicted winner: %s  |  Basis: %s\n",
		vm.Player1.Name, vm.Player2.Name, orDash(vm.PredictedWinner), orDash(vm.ComparisonBasis))
	if vm.ModelAccuracy != nil || vm.CrossValidationScore != nil {
		fmt.Fprintf(r.W, "Model accuracy: %s  |  Cross-validation: %s\n", pct(vm.ModelAccuracy), pct(vm.CrossValidationScore))
	}
	if a := vm.ColorAgnostic; a != nil {
		fmt.Fprintf(r.W, "Average rating: %.0f vs %.0f  |  %s\n", a.Player1AverageRating, a.Player2AverageRating, orDash(a.Prediction))
	}

	panels := []compareview.Panel{vm.Player1, vm.Player2}
	if cs := vm.ColorSpecific; cs != nil {
		if cs.Player1AsWhite != nil {
			p := *cs.Player1AsWhite
			p.Name += " (white)"
			panels = append(panels, p)
		}
		if cs.Player2AsBlack != nil {
			p := *cs.Player2AsBlack
			p.Name += " (black)"
			panels = append(panels, p)
		}
	}
	for _, p := range panels {
		if err := r.panel(p); err != nil {
			return err
		}
	}

	if top := vm.TopOpenings; top != nil {
		fmt.Fprintln(r.W)
		table := r.table()
		table.Header("PLAYER", "OPENING", "WINS", "LOSSES")
		rows := []struct {
			name    string
			records []models.OpeningRecord
		}{{vm.Player1.Name, top.Player1}, {vm.Player2.Name, top.Player2}}
		for _, row := range rows {
			for _, o := range row.records {
				if err := table.Append(row.name, o.Opening, strconv.Itoa(o.Wins), strconv.Itoa(o.Losses)); err != nil {
					return err
				}
			}
		}
		return table.Render()
	}
	return nil
}

func (r *Renderer) panel(p compareview.Panel) error {
	fmt.Fprintf(r.W, "\n%s: %s\n", p.Name, p.StatsSummary())
	fmt.Fprintf(r.W, "Result: %s\n", orDash(p.ResultLabel))

	table := r.table()
	table.Header("FEATURE", "CONTRIBUTION")
	for _, c := range p.Contributions {
		if err := table.Append(c.Feature, fmt.Sprintf("%+.3f", c.Value)); err != nil {
			return err
		}
	}
	if len(p.Contributions) == 0 {
		if err := table.Append(compareview.NoData, ""); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if p.Openings.NoData {
		_, err := fmt.Fprintf(r.W, "Opening effects: %s\n", compareview.NoData)
		return err
	}
	effects := make([]string, 0, len(p.Openings.Effects))
	for _, e := range p.Openings.Effects {
		effects = append(effects, e.Opening+": "+e.Effect)
	}
	_, err := fmt.Fprintf(r.W, "Opening effects: %s\n", strings.Join(effects, "; "))
	return err
}

// Examples prints one username per line.
func (r *Renderer) Examples(names []string) error {
	table := r.table()
	table.Header("#", "USERNAME")
	for i, n := range names {
		if err := table.Append(strconv.Itoa(i+1), n); err != nil {
			return err
		}
	}
	return table.Render()
}

// TopPlayers prints the ranked leaderboard.
func (r *Renderer) TopPlayers(players []models.PlayerStats) error {
	table := r.table()
	table.Header("RANK", "PLAYER", "GAMES", "WIN%", "AVG_RATING", "AVG_OPP")
	for i, p := range players {
		if err := table.Append(strconv.Itoa(i+1), p.Username, strconv.Itoa(p.TotalGames),
			fmt.Sprintf("%.1f%%", p.WinPercentage), fmt.Sprintf("%.0f", p.AverageRating),
			fmt.Sprintf("%.1f", p.AverageOpponentRating)); err != nil {
			return err
		}
	}
	return table.Render()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func pct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}
