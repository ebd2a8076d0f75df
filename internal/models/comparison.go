package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ComparePlayersRequest is the body of POST /compare_players.
type ComparePlayersRequest struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

// FeatureContribution is one signed term of a prediction. The service emits
// these as [name, value] pairs; object form is accepted too.
type FeatureContribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

func (c *FeatureContribution) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty feature contribution")
	}
	switch data[0] {
	case '[':
		var pair []json.RawMessage
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("feature contribution pair has %d elements", len(pair))
		}
		var out FeatureContribution
		if err := json.Unmarshal(pair[0], &out.Feature); err != nil {
			return fmt.Errorf("feature contribution name: %w", err)
		}
		if err := json.Unmarshal(pair[1], &out.Value); err != nil {
			return fmt.Errorf("feature contribution value: %w", err)
		}
		*c = out
		return nil
	case '{':
		var obj struct {
			Feature      *string  `json:"feature"`
			Name         *string  `json:"name"`
			Value        *float64 `json:"value"`
			Contribution *float64 `json:"contribution"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		var out FeatureContribution
		switch {
		case obj.Feature != nil:
			out.Feature = *obj.Feature
		case obj.Name != nil:
			out.Feature = *obj.Name
		default:
			return fmt.Errorf("feature contribution without a feature name")
		}
		switch {
		case obj.Value != nil:
			out.Value = *obj.Value
		case obj.Contribution != nil:
			out.Value = *obj.Contribution
		}
		*c = out
		return nil
	default:
		return fmt.Errorf("unsupported feature contribution %s", string(data))
	}
}

// PredictionDetail is one model verdict with its explanation.
type PredictionDetail struct {
	Result                    string                `json:"result"`
	FeatureContributions      []FeatureContribution `json:"feature_contributions,omitempty"`
	ShortFeatureContributions []FeatureContribution `json:"short_feature_contributions,omitempty"`
	OpeningEffects            map[string]string     `json:"opening_effects,omitempty"`
}

func (p *PredictionDetail) UnmarshalJSON(data []byte) error {
	var w struct {
		Result                    string                `json:"result"`
		Prediction                string                `json:"prediction"`
		FeatureContributions      []FeatureContribution `json:"feature_contributions"`
		ShortFeatureContributions []FeatureContribution `json:"short_feature_contributions"`
		OpeningEffects            map[string]string     `json:"opening_effects"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = PredictionDetail{
		Result:                    w.Result,
		FeatureContributions:      w.FeatureContributions,
		ShortFeatureContributions: w.ShortFeatureContributions,
		OpeningEffects:            w.OpeningEffects,
	}
	if p.Result == "" {
		p.Result = w.Prediction
	}
	return nil
}

// Contributions returns the full list when present, else the short one.
func (p PredictionDetail) Contributions() []FeatureContribution {
	if len(p.FeatureContributions) > 0 {
		return p.FeatureContributions
	}
	return p.ShortFeatureContributions
}

type ColorSpecific struct {
	Player1AsWhite *PredictionDetail `json:"player1_as_white,omitempty"`
	Player2AsBlack *PredictionDetail `json:"player2_as_black,omitempty"`
}

type ColorAgnostic struct {
	Player1AverageRating float64 `json:"player1_average_rating"`
	Player2AverageRating float64 `json:"player2_average_rating"`
	Prediction           string  `json:"prediction"`
}

type OpeningRecord struct {
	Opening string `json:"opening"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
}

type TopOpeningPredictions struct {
	Player1 []OpeningRecord `json:"player1"`
	Player2 []OpeningRecord `json:"player2"`
}

// ComparisonResult is the body returned by POST /compare_players.
type ComparisonResult struct {
	Player1               *PlayerStats           `json:"player1,omitempty"`
	Player2               *PlayerStats           `json:"player2,omitempty"`
	Player1Prediction     *PredictionDetail      `json:"player1_prediction,omitempty"`
	Player2Prediction     *PredictionDetail      `json:"player2_prediction,omitempty"`
	PredictedWinner       string                 `json:"predicted_winner"`
	ComparisonBasis       string                 `json:"comparison_basis"`
	ColorSpecific         *ColorSpecific         `json:"color_specific,omitempty"`
	ColorAgnostic         *ColorAgnostic         `json:"color_agnostic,omitempty"`
	TopOpeningPredictions *TopOpeningPredictions `json:"top_opening_predictions,omitempty"`
	ModelAccuracy         *float64               `json:"model_accuracy,omitempty"`
	CrossValidationScore  *float64               `json:"cross_validation_score,omitempty"`
}
