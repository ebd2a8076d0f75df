package clusterview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chessdash/internal/diagnostics"
	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/models"
)

func decode(t *testing.T, payload string) *models.ClusteringResponse {
	t.Helper()
	var resp models.ClusteringResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &resp))
	return &resp
}

func TestBuild_SinglePlayerScenario(t *testing.T) {
	resp := decode(t, `{
		"player_features": [{"player": "bob", "avg_elo": 1200, "avg_opponent_elo": 1300, "cluster": 1}],
		"cluster_summary": [{"cluster": 1, "avg_elo": 1200, "avg_opponent_elo": 1300, "player_count": 1}]
	}`)
	params := models.ClusterQueryParams{NumClusters: 5, XAxis: models.AxisAvgElo, YAxis: models.AxisAvgOpponentElo}

	vm := NewBuilder().Build(resp, params)

	require.Len(t, vm.Series.Points, 1)
	p := vm.Series.Points[0]
	assert.Equal(t, "bob", p.Player)
	assert.Equal(t, 1200.0, p.X)
	assert.Equal(t, 1300.0, p.Y)
	assert.False(t, p.Degraded)

	require.Len(t, vm.Clusters, 1)
	assert.Equal(t, vm.Clusters[0].Color, p.Color)
	assert.Equal(t, DefaultPalette[0], p.Color)
	assert.Empty(t, vm.Diagnostics)
}

func TestBuild_DanglingClusterReference(t *testing.T) {
	resp := decode(t, `{
		"player_features": [{"player": "carol", "avg_elo": 1500, "avg_opponent_elo": 1450, "cluster": 3}],
		"cluster_summary": []
	}`)
	collector := diagnostics.NewCollector(10)

	vm := NewBuilder(WithSink(collector)).Build(resp, models.DefaultClusterQueryParams())

	require.Len(t, vm.Series.Points, 1)
	p := vm.Series.Points[0]
	assert.Equal(t, FallbackColor, p.Color)
	assert.True(t, p.Degraded)
	assert.Equal(t, 1500.0, p.X)

	require.Len(t, vm.Diagnostics, 1)
	assert.Equal(t, errors.ErrCodeConsistency, vm.Diagnostics[0].Code)
	assert.Contains(t, vm.Diagnostics[0].Message, "cluster 3")
	require.Len(t, collector.Entries(), 1)
	assert.Equal(t, "clusterview", collector.Entries()[0].Source)
	assert.Empty(t, vm.Clusters)
}

func TestBuild_PaletteIsDeterministic(t *testing.T) {
	payload := `{
		"player_features": [
			{"player": "a", "avg_elo": 1, "avg_opponent_elo": 1, "cluster": 7},
			{"player": "b", "avg_elo": 2, "avg_opponent_elo": 2, "cluster": 2},
			{"player": "c", "avg_elo": 3, "avg_opponent_elo": 3, "cluster": 4}
		],
		"cluster_summary": [{"cluster": 7}, {"cluster": 2}, {"cluster": 4}]
	}`
	b := NewBuilder()

	first := b.Build(decode(t, payload), models.DefaultClusterQueryParams())
	for i := 0; i < 10; i++ {
		again := b.Build(decode(t, payload), models.DefaultClusterQueryParams())
		assert.Equal(t, first.Series.Points, again.Series.Points)
		assert.Equal(t, first.Clusters, again.Clusters)
	}

	colors := map[string]string{}
	for _, p := range first.Series.Points {
		colors[p.Player] = p.Color
	}
	assert.Equal(t, DefaultPalette[2], colors["a"])
	assert.Equal(t, DefaultPalette[0], colors["b"])
	assert.Equal(t, DefaultPalette[1], colors["c"])
}

func TestBuild_PaletteWrapsAround(t *testing.T) {
	resp := decode(t, `{"cluster_summary": [{"cluster": 0}, {"cluster": 1}, {"cluster": 2}]}`)

	vm := NewBuilder(WithPalette([]string{"red", "blue"})).Build(resp, models.DefaultClusterQueryParams())

	require.Len(t, vm.Clusters, 3)
	assert.Equal(t, "red", vm.Clusters[0].Color)
	assert.Equal(t, "blue", vm.Clusters[1].Color)
	assert.Equal(t, "red", vm.Clusters[2].Color)
}

func TestBuild_ColorPrecedence(t *testing.T) {
	resp := decode(t, `{
		"player_features": [
			{"player": "explicit", "avg_elo": 1, "avg_opponent_elo": 1, "cluster": 1, "cluster_color": "#000001"},
			{"player": "own", "avg_elo": 1, "avg_opponent_elo": 1, "cluster": 2, "cluster_color": "#000002"},
			{"player": "sibling", "avg_elo": 1, "avg_opponent_elo": 1, "cluster": 2, "cluster_color": "#0000ff"},
			{"player": "uncoloured", "avg_elo": 1, "avg_opponent_elo": 1, "cluster": 2},
			{"player": "palette", "avg_elo": 1, "avg_opponent_elo": 1, "cluster": 3}
		],
		"cluster_summary": [{"cluster": 1, "color": "#aaaaaa"}, {"cluster": 2}, {"cluster": 3}]
	}`)

	vm := NewBuilder().Build(resp, models.DefaultClusterQueryParams())

	require.Len(t, vm.Series.Points, 5)
	assert.Equal(t, "#aaaaaa", vm.Series.Points[0].Color, "summary colour wins")
	for _, p := range vm.Series.Points[1:4] {
		assert.Equal(t, "#000002", p.Color, "first point colour is shared by the cluster")
	}
	assert.Equal(t, DefaultPalette[2], vm.Series.Points[4].Color)

	require.Len(t, vm.Clusters, 3)
	for i, card := range vm.Clusters {
		assert.Equal(t, vm.Series.Points[[]int{0, 1, 4}[i]].Color, card.Color, "card %d matches its points", card.ID)
	}
}

func TestBuild_AxisSelection(t *testing.T) {
	resp := decode(t, `{
		"player_features": [{"player": "bob", "games": 40, "avg_elo": 1200, "avg_opponent_elo": 1300, "cluster": 0}],
		"cluster_summary": [{"cluster": 0}]
	}`)

	vm := NewBuilder().Build(resp, models.ClusterQueryParams{NumClusters: 1, XAxis: models.AxisGames, YAxis: models.AxisGames})

	p := vm.Series.Points[0]
	assert.Equal(t, 40.0, p.X)
	assert.Equal(t, 40.0, p.Y)
	assert.Equal(t, models.AxisGames, vm.Series.XAxis)
}

func TestBuild_MissingAxisValue(t *testing.T) {
	resp := decode(t, `{
		"player_features": [{"player": "dan", "avg_elo": 1100, "cluster": 0}],
		"cluster_summary": [{"cluster": 0, "avg_elo": 1100, "avg_opponent_elo": 1000, "player_count": 1}]
	}`)

	vm := NewBuilder().Build(resp, models.DefaultClusterQueryParams())

	p := vm.Series.Points[0]
	assert.Equal(t, 1100.0, p.X)
	assert.Equal(t, 0.0, p.Y)
	assert.True(t, p.Degraded)
	assert.Equal(t, DefaultPalette[0], p.Color, "colour still resolves")
	require.Len(t, vm.Diagnostics, 1)
	assert.Contains(t, vm.Diagnostics[0].Message, "avg_opponent_elo")
}

func TestBuild_MissingClusterAssignment(t *testing.T) {
	resp := decode(t, `{
		"player_features": [{"player": "erin", "avg_elo": 1, "avg_opponent_elo": 1}],
		"cluster_summary": [{"cluster": 0}]
	}`)

	vm := NewBuilder().Build(resp, models.DefaultClusterQueryParams())

	assert.Equal(t, FallbackColor, vm.Series.Points[0].Color)
	require.Len(t, vm.Diagnostics, 1)
	assert.Contains(t, vm.Diagnostics[0].Message, "no cluster assignment")
}

func TestBuild_SynthesizesSummaryFields(t *testing.T) {
	resp := decode(t, `{
		"player_features": [
			{"player": "a", "avg_elo": 1000, "avg_opponent_elo": 1100, "cluster": 0},
			{"player": "b", "avg_elo": 1200, "avg_opponent_elo": 1300, "cluster": 0},
			{"player": "c", "avg_elo": 2000, "avg_opponent_elo": 1900, "cluster": 1}
		],
		"cluster_summary": [{"cluster": 1, "avg_elo": 2001, "avg_opponent_elo": 1901, "player_count": 1}, {"cluster": 0}]
	}`)

	vm := NewBuilder().Build(resp, models.DefaultClusterQueryParams())

	require.Len(t, vm.Clusters, 2)
	c0 := vm.Clusters[0]
	assert.Equal(t, 0, c0.ID)
	assert.Equal(t, 2, c0.PlayerCount)
	assert.Equal(t, 1100.0, c0.AvgElo)
	assert.Equal(t, 1200.0, c0.AvgOpponentElo)
	assert.True(t, c0.Synthesized)

	c1 := vm.Clusters[1]
	assert.Equal(t, 2001.0, c1.AvgElo, "explicit values are kept")
	assert.False(t, c1.Synthesized)
}

func TestBuild_DuplicateSummaryID(t *testing.T) {
	resp := decode(t, `{"cluster_summary": [{"cluster": 1, "color": "#111111"}, {"cluster": 1, "color": "#222222"}]}`)

	vm := NewBuilder().Build(resp, models.DefaultClusterQueryParams())

	require.Len(t, vm.Clusters, 1)
	assert.Equal(t, "#111111", vm.Clusters[0].Color)
	require.Len(t, vm.Diagnostics, 1)
}

func TestBuild_DetailedStats(t *testing.T) {
	resp := decode(t, `{
		"cluster_summary": [{"cluster": 0, "avg_elo": 1000, "avg_opponent_elo": 1050, "player_count": 4}, {"cluster": 1, "player_count": 2}],
		"detailed_cluster_stats": {
			"0": {"avg_games": 35.5, "variants": {"Rapid": 4, "Blitz": 10}},
			"1": {"avg_elo": 1800, "avg_games": 12, "variants": {}},
			"9": {"avg_games": 1}
		}
	}`)

	vm := NewBuilder().Build(resp, models.DefaultClusterQueryParams())

	require.Len(t, vm.Details, 3)
	d0 := vm.Details[0]
	assert.Equal(t, 1000.0, d0.AvgElo, "inherited from summary")
	assert.Equal(t, 4, d0.PlayerCount)
	assert.Equal(t, 35.5, d0.AvgGames)
	assert.Equal(t, []VariantCount{{Name: "Blitz", Average: 10}, {Name: "Rapid", Average: 4}}, d0.Variants)

	d1 := vm.Details[1]
	assert.Equal(t, 1800.0, d1.AvgElo)
	assert.Nil(t, d1.Variants, "empty breakdown omitted")

	d9 := vm.Details[2]
	assert.Equal(t, FallbackColor, d9.Color)
	require.Len(t, vm.Diagnostics, 1)
	assert.Contains(t, vm.Diagnostics[0].Message, "cluster 9")

	data, err := json.Marshal(d1)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "variants")
}

func TestBuild_IndexMirrorsPlayerFeatures(t *testing.T) {
	resp := decode(t, `{
		"player_features": [{"player": "a", "cluster": 0}, {"player": "b", "cluster": 0}],
		"cluster_summary": [{"cluster": 0}]
	}`)

	vm := NewBuilder().Build(resp, models.DefaultClusterQueryParams())

	require.Len(t, vm.Index, 2)
	for i, p := range vm.Series.Points {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, vm.Index[i].Player, p.Player)
	}
}

func TestBuild_NilResponse(t *testing.T) {
	vm := NewBuilder().Build(nil, models.DefaultClusterQueryParams())
	assert.Empty(t, vm.Series.Points)
	assert.Empty(t, vm.Clusters)
	assert.False(t, vm.Degraded())
}
