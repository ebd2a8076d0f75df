// Package compareview turns comparison responses into two side-by-side
// prediction panels.
package compareview

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
)

// DefaultTopN is how many feature contributions each panel keeps.
const DefaultTopN = 5

// NoData is rendered wherever an optional section is missing.
const NoData = "no data"

const openingFeaturePrefix = "opening_"

type OpeningEffect struct {
	Opening string `json:"opening"`
	Effect  string `json:"effect"`
}

// OpeningSection maps openings to a qualitative effect label. NoData is set
// when the service sent no mapping.
type OpeningSection struct {
	Effects []OpeningEffect `json:"effects,omitempty"`
	NoData  bool            `json:"no_data"`
}

type Panel struct {
	Name          string                       `json:"name"`
	Stats         *models.PlayerStats          `json:"stats,omitempty"`
	ResultLabel   string                       `json:"result"`
	Contributions []models.FeatureContribution `json:"contributions"`
	Openings      OpeningSection               `json:"openings"`
}

// StatsSummary is a one-line rendering of the echoed base stats.
func (p Panel) StatsSummary() string {
	if p.Stats == nil {
		return NoData
	}
	s := p.Stats
	return fmt.Sprintf("%d games, %d/%d/%d W/L/D, %.1f%% wins, avg rating %.0f",
		s.TotalGames, s.Wins, s.Losses, s.Draws, s.WinPercentage, s.AverageRating)
}

// ColorPanels holds the optional per-colour predictions.
type ColorPanels struct {
	Player1AsWhite *Panel `json:"player1_as_white,omitempty"`
	Player2AsBlack *Panel `json:"player2_as_black,omitempty"`
}

type ViewModel struct {
	Player1              Panel                         `json:"player1"`
	Player2              Panel                         `json:"player2"`
	PredictedWinner      string                        `json:"predicted_winner"`
	ComparisonBasis      string                        `json:"comparison_basis"`
	ColorSpecific        *ColorPanels                  `json:"color_specific,omitempty"`
	ColorAgnostic        *models.ColorAgnostic         `json:"color_agnostic,omitempty"`
	TopOpenings          *models.TopOpeningPredictions `json:"top_opening_predictions,omitempty"`
	ModelAccuracy        *float64                      `json:"model_accuracy,omitempty"`
	CrossValidationScore *float64                      `json:"cross_validation_score,omitempty"`
}

type Builder struct {
	topN int
	log  *logger.Logger
}

type Option func(*Builder)

func WithTopN(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.topN = n
		}
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{topN: DefaultTopN, log: logger.Default().WithPrefix("compareview")}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build fails only on empty player names. Missing sub-structures render as
// "no data".
func (b *Builder) Build(player1, player2 string, result *models.ComparisonResult) (*ViewModel, error) {
	player1, player2 = strings.TrimSpace(player1), strings.TrimSpace(player2)
	if player1 == "" {
		return nil, errors.NewValidationError("player1", "must not be empty")
	}
	if player2 == "" {
		return nil, errors.NewValidationError("player2", "must not be empty")
	}
	if result == nil {
		result = &models.ComparisonResult{}
	}

	var asWhite, asBlack *models.PredictionDetail
	if cs := result.ColorSpecific; cs != nil {
		asWhite, asBlack = cs.Player1AsWhite, cs.Player2AsBlack
	}

	p1 := result.Player1Prediction
	if p1 == nil {
		p1 = asWhite
	}
	p2 := result.Player2Prediction
	if p2 == nil {
		p2 = asBlack
	}

	vm := &ViewModel{
		Player1:              b.panel(player1, result.Player1, p1),
		Player2:              b.panel(player2, result.Player2, p2),
		PredictedWinner:      result.PredictedWinner,
		ComparisonBasis:      result.ComparisonBasis,
		ColorAgnostic:        result.ColorAgnostic,
		TopOpenings:          result.TopOpeningPredictions,
		ModelAccuracy:        result.ModelAccuracy,
		CrossValidationScore: result.CrossValidationScore,
	}

	if asWhite != nil || asBlack != nil {
		vm.ColorSpecific = &ColorPanels{}
		if asWhite != nil {
			p := b.panel(player1, result.Player1, asWhite)
			vm.ColorSpecific.Player1AsWhite = &p
		}
		if asBlack != nil {
			p := b.panel(player2, result.Player2, asBlack)
			vm.ColorSpecific.Player2AsBlack = &p
		}
	}

	b.log.Debug("built comparison %s vs %s, winner=%q", player1, player2, vm.PredictedWinner)
	return vm, nil
}

func (b *Builder) panel(name string, stats *models.PlayerStats, pred *models.PredictionDetail) Panel {
	p := Panel{
		Name:          name,
		Stats:         stats,
		ResultLabel:   NoData,
		Contributions: []models.FeatureContribution{},
		Openings:      OpeningSection{NoData: true},
	}
	if pred == nil {
		return p
	}
	if pred.Result != "" {
		p.ResultLabel = pred.Result
	}
	p.Contributions = TopContributions(pred.Contributions(), b.topN)
	p.Openings = openingSection(pred.OpeningEffects)
	return p
}

// TopContributions orders contributions by descending absolute value and
// keeps the first n. Ties keep their source order.
func TopContributions(in []models.FeatureContribution, n int) []models.FeatureContribution {
	out := append([]models.FeatureContribution{}, in...)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Value) > math.Abs(out[j].Value)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func openingSection(effects map[string]string) OpeningSection {
	if len(effects) == 0 {
		return OpeningSection{NoData: true}
	}
	out := make([]OpeningEffect, 0, len(effects))
	for name, effect := range effects {
		out = append(out, OpeningEffect{Opening: strings.TrimPrefix(name, openingFeaturePrefix), Effect: effect})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Opening < out[j].Opening })
	return OpeningSection{Effects: out}
}
