package models_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/models"
)

func TestPlayerStats_MergesSplitOpenings(t *testing.T) {
	payload := `{
		"username": "alice",
		"total_games": 10,
		"wins": 6, "losses": 3, "draws": 1,
		"average_rating": 1510,
		"average_opponent_rating": 1488.5,
		"most_common_opponent": "bob",
		"most_common_openings": [{"name": "Sicilian Defense", "count": 6}, {"name": "French Defense", "count": 4}],
		"opening_winrates": [{"name": "French Defense", "winrate": 25.0}, {"name": "Sicilian Defense", "winrate": 83.3}],
		"game_lengths": [40, 52, 31],
		"higher_elo_wins": 2, "higher_elo_losses": 2,
		"lower_elo_wins": 4, "lower_elo_losses": 1
	}`

	var s models.PlayerStats
	require.NoError(t, json.Unmarshal([]byte(payload), &s))

	assert.Equal(t, "alice", s.Username)
	assert.True(t, s.Consistent())
	assert.InDelta(t, 60.0, s.WinPercentage, 0.001)
	require.Len(t, s.Openings, 2)
	assert.Equal(t, models.OpeningStat{Name: "Sicilian Defense", Count: 6, Winrate: 83.3}, s.Openings[0])
	assert.Equal(t, models.OpeningStat{Name: "French Defense", Count: 4, Winrate: 25.0}, s.Openings[1])
	assert.InDelta(t, 50.0, s.HigherEloWinPercentage(), 0.001)
	assert.InDelta(t, 80.0, s.LowerEloWinPercentage(), 0.001)
	assert.InDelta(t, 41.0, s.AverageGameLength(), 0.001)
}

func TestPlayerStats_WinPercentageVariant(t *testing.T) {
	var s models.PlayerStats
	require.NoError(t, json.Unmarshal([]byte(`{"username": "carol", "total_games": 20, "win_percentage": 45.5}`), &s))

	assert.Equal(t, 20, s.TotalGames)
	assert.Equal(t, 45.5, s.WinPercentage)
	assert.Nil(t, s.Openings)
}

func TestPlayerStats_SynthesizesTotalGames(t *testing.T) {
	var s models.PlayerStats
	require.NoError(t, json.Unmarshal([]byte(`{"username": "dan", "wins": 2, "losses": 1, "draws": 1, "most_common_opponent": null}`), &s))

	assert.Equal(t, 4, s.TotalGames)
	assert.Equal(t, "", s.MostCommonOpponent)
	assert.InDelta(t, 50.0, s.WinPercentage, 0.001)
}

func TestPlayerStats_DistributionOnly(t *testing.T) {
	var s models.PlayerStats
	require.NoError(t, json.Unmarshal([]byte(`{"username": "erin", "openings_distribution": {"Italian Game": 3, "Ruy Lopez": 5}}`), &s))

	require.Len(t, s.Openings, 2)
	assert.Equal(t, "Ruy Lopez", s.Openings[0].Name)
	assert.Equal(t, "Italian Game", s.Openings[1].Name)
}

func TestPlayerStats_MarshalKeepsBothShapes(t *testing.T) {
	in := models.PlayerStats{
		Username: "frank", TotalGames: 2, Wins: 1, Losses: 1,
		Openings: []models.OpeningStat{{Name: "London System", Count: 2, Winrate: 50}},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "openings")
	assert.Contains(t, raw, "most_common_openings")
	assert.Contains(t, raw, "opening_winrates")

	var out models.PlayerStats
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Openings, out.Openings)
	assert.Equal(t, 50.0, out.WinPercentage)
}

func TestClusterQueryParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  models.ClusterQueryParams
		wantErr string
	}{
		{name: "defaults", params: models.DefaultClusterQueryParams()},
		{name: "same axes", params: models.ClusterQueryParams{NumClusters: 1, XAxis: models.AxisGames, YAxis: models.AxisGames}.WithDefaults()},
		{name: "feature set all", params: models.ClusterQueryParams{NumClusters: 3, FeatureSet: models.FeatureSetAll}.WithDefaults()},
		{name: "zero clusters", params: models.ClusterQueryParams{NumClusters: 0}.WithDefaults(), wantErr: "num_clusters"},
		{name: "bad axis", params: models.ClusterQueryParams{NumClusters: 3, XAxis: "rating"}.WithDefaults(), wantErr: "x_axis"},
		{name: "bad feature set", params: models.ClusterQueryParams{NumClusters: 3, FeatureSet: "some"}.WithDefaults(), wantErr: "feature_set"},
		{name: "tsne", params: models.ClusterQueryParams{NumClusters: 3, ReductionMethod: "tsne"}.WithDefaults(), wantErr: "reduction_method"},
		{name: "heatmap", params: models.ClusterQueryParams{NumClusters: 3, PlotType: "heatmap"}.WithDefaults(), wantErr: "plot_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClusterQueryParams_OmitsEmptyFeatureSet(t *testing.T) {
	data, err := json.Marshal(models.DefaultClusterQueryParams())
	require.NoError(t, err)
	assert.JSONEq(t, `{"num_clusters":5,"x_axis":"avg_elo","y_axis":"avg_opponent_elo","reduction_method":"pca","plot_type":"scatter"}`, string(data))
}

func TestClusteringResponse_Decode(t *testing.T) {
	payload := `{
		"player_features": [
			{"player": "bob", "games": 12, "avg_elo": 1200, "avg_opponent_elo": 1300, "cluster": 1, "dim1": 0.5},
			{"username": "eve", "avg_elo": 1800.5, "avg_opponent_elo": null},
			{"player": "zed", "cluster": "2", "cluster_color": "#ff0000"}
		],
		"cluster_summary": [
			{"cluster": 1, "avg_elo": 1200, "avg_opponent_elo": 1300, "player_count": 1},
			{"id": 2, "cluster_color": "#00ff00"}
		],
		"detailed_cluster_stats": {"1": {"avg_games": 12, "variants": {"Blitz": 8}}},
		"clusters": [1, 0, 2],
		"silhouette_score": 0.61
	}`

	var r models.ClusteringResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &r))

	require.Len(t, r.PlayerFeatures, 3)
	bob := r.PlayerFeatures[0]
	assert.Equal(t, "bob", bob.Player)
	assert.Equal(t, 1, bob.Cluster)
	assert.True(t, bob.HasFullFields())
	assert.Equal(t, 0.5, bob.Features["dim1"])

	eve := r.PlayerFeatures[1]
	assert.Equal(t, "eve", eve.Player)
	assert.True(t, eve.HasCluster, "cluster synthesized from labels array")
	assert.Equal(t, 0, eve.Cluster)
	_, hasOpp := eve.Feature(models.AxisAvgOpponentElo)
	assert.False(t, hasOpp, "null features are absent")
	assert.False(t, eve.HasFullFields())

	zed := r.PlayerFeatures[2]
	assert.Equal(t, 2, zed.Cluster)
	assert.Equal(t, "#ff0000", zed.Color)

	require.Len(t, r.ClusterSummary, 2)
	assert.True(t, r.ClusterSummary[0].HasPlayerCount)
	assert.Equal(t, 2, r.ClusterSummary[1].ID)
	assert.Equal(t, "#00ff00", r.ClusterSummary[1].Color)
	assert.False(t, r.ClusterSummary[1].HasAvgElo)

	require.Contains(t, r.DetailedClusterStats, 1)
	assert.Equal(t, 12.0, r.DetailedClusterStats[1].AvgGames)
	assert.Equal(t, map[string]float64{"Blitz": 8}, r.DetailedClusterStats[1].Variants)
	assert.Equal(t, []int{1}, r.DetailedClusterIDs())
	require.NotNil(t, r.SilhouetteScore)
	assert.Equal(t, 0.61, *r.SilhouetteScore)
}

func TestClusteringResponse_RejectsBadShapes(t *testing.T) {
	payloads := map[string]string{
		"summary without id":  `{"cluster_summary": [{"avg_elo": 1}]}`,
		"fractional cluster":  `{"player_features": [{"player": "a", "cluster": 1.5}]}`,
		"non-numeric key":     `{"detailed_cluster_stats": {"first": {}}}`,
		"features not a list": `{"player_features": {"player": "a"}}`,
	}
	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			var r models.ClusteringResponse
			assert.Error(t, json.Unmarshal([]byte(payload), &r))
		})
	}
}

func TestPlayerFeaturePoint_MarshalFlattens(t *testing.T) {
	p := models.PlayerFeaturePoint{Player: "bob", Features: map[string]float64{"avg_elo": 1200}, Cluster: 1, HasCluster: true}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"player":"bob","avg_elo":1200,"cluster":1}`, string(data))
}

func TestFeatureContribution_Shapes(t *testing.T) {
	var list []models.FeatureContribution
	require.NoError(t, json.Unmarshal([]byte(`[["difference", 0.8], {"feature": "num_moves", "value": -0.2}, {"name": "opening_Sicilian", "contribution": 0.1}]`), &list))

	assert.Equal(t, []models.FeatureContribution{
		{Feature: "difference", Value: 0.8},
		{Feature: "num_moves", Value: -0.2},
		{Feature: "opening_Sicilian", Value: 0.1},
	}, list)

	var bad models.FeatureContribution
	assert.Error(t, json.Unmarshal([]byte(`["only-name"]`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"value": 1}`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestPredictionDetail_PredictionFallback(t *testing.T) {
	var p models.PredictionDetail
	require.NoError(t, json.Unmarshal([]byte(`{"prediction": "White wins", "short_feature_contributions": [["difference", 1.2]]}`), &p))

	assert.Equal(t, "White wins", p.Result)
	assert.Equal(t, []models.FeatureContribution{{Feature: "difference", Value: 1.2}}, p.Contributions())
}
