package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vytor/chessdash/internal/errors"
)

// Axis names a numeric player feature that can be plotted.
type Axis string

const (
	AxisAvgElo         Axis = "avg_elo"
	AxisAvgOpponentElo Axis = "avg_opponent_elo"
	AxisGames          Axis = "games"
)

var axes = []Axis{AxisAvgElo, AxisAvgOpponentElo, AxisGames}

// Axes lists the plottable feature axes.
func Axes() []Axis {
	return append([]Axis(nil), axes...)
}

func (a Axis) Valid() bool {
	for _, v := range axes {
		if a == v {
			return true
		}
	}
	return false
}

type FeatureSet string

const (
	FeatureSetDefault FeatureSet = "default"
	FeatureSetAll     FeatureSet = "all"
)

func (f FeatureSet) Valid() bool {
	return f == FeatureSetDefault || f == FeatureSetAll
}

const (
	ReductionPCA    = "pca"
	PlotTypeScatter = "scatter"
)

// ClusterQueryParams is the request body of POST /api/kmeans.
type ClusterQueryParams struct {
	NumClusters     int        `json:"num_clusters"`
	XAxis           Axis       `json:"x_axis"`
	YAxis           Axis       `json:"y_axis"`
	ReductionMethod string     `json:"reduction_method"`
	PlotType        string     `json:"plot_type"`
	FeatureSet      FeatureSet `json:"feature_set,omitempty"`
}

// DefaultClusterQueryParams mirrors the dashboard's initial query.
func DefaultClusterQueryParams() ClusterQueryParams {
	return ClusterQueryParams{NumClusters: 5}.WithDefaults()
}

// WithDefaults fills unset axes, reduction method and plot type.
func (p ClusterQueryParams) WithDefaults() ClusterQueryParams {
	if p.XAxis == "" {
		p.XAxis = AxisAvgElo
	}
	if p.YAxis == "" {
		p.YAxis = AxisAvgOpponentElo
	}
	if p.ReductionMethod == "" {
		p.ReductionMethod = ReductionPCA
	}
	if p.PlotType == "" {
		p.PlotType = PlotTypeScatter
	}
	return p
}

// Validate rejects parameters the stats service cannot serve. x_axis and
// y_axis may be equal.
func (p ClusterQueryParams) Validate() error {
	if p.NumClusters < 1 {
		return errors.NewValidationError("num_clusters", fmt.Sprintf("must be at least 1, got %d", p.NumClusters))
	}
	if !p.XAxis.Valid() {
		return errors.NewValidationError("x_axis", fmt.Sprintf("unknown axis %q", p.XAxis))
	}
	if !p.YAxis.Valid() {
		return errors.NewValidationError("y_axis", fmt.Sprintf("unknown axis %q", p.YAxis))
	}
	if p.FeatureSet != "" && !p.FeatureSet.Valid() {
		return errors.NewValidationError("feature_set", fmt.Sprintf("unknown feature set %q", p.FeatureSet))
	}
	if p.ReductionMethod != ReductionPCA {
		return errors.NewValidationError("reduction_method", fmt.Sprintf("only %q is supported, got %q", ReductionPCA, p.ReductionMethod))
	}
	if p.PlotType != PlotTypeScatter {
		return errors.NewValidationError("plot_type", fmt.Sprintf("only %q is supported, got %q", PlotTypeScatter, p.PlotType))
	}
	return nil
}

// PlayerFeaturePoint is one clustered player. Numeric fields other than the
// cluster id land in Features keyed by their wire name.
type PlayerFeaturePoint struct {
	Player     string
	Features   map[string]float64
	Cluster    int
	HasCluster bool
	Color      string
}

// Feature returns the value for the given axis and whether it was present.
func (p PlayerFeaturePoint) Feature(axis Axis) (float64, bool) {
	v, ok := p.Features[string(axis)]
	return v, ok
}

// HasFullFields reports whether the point carries enough to render player
// detail without a secondary fetch.
func (p PlayerFeaturePoint) HasFullFields() bool {
	if !p.HasCluster {
		return false
	}
	_, games := p.Features[string(AxisGames)]
	_, elo := p.Features[string(AxisAvgElo)]
	return games && elo
}

func (p *PlayerFeaturePoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := PlayerFeaturePoint{Features: map[string]float64{}}
	for key, value := range raw {
		switch key {
		case "player", "username":
			var name string
			if err := json.Unmarshal(value, &name); err != nil {
				return fmt.Errorf("player feature %s: %w", key, err)
			}
			if out.Player == "" || key == "player" {
				out.Player = name
			}
		case "cluster":
			id, ok, err := decodeClusterID(value)
			if err != nil {
				return fmt.Errorf("player feature cluster: %w", err)
			}
			out.Cluster, out.HasCluster = id, ok
		case "cluster_color", "color":
			var c string
			if err := json.Unmarshal(value, &c); err == nil {
				out.Color = c
			}
		default:
			var f float64
			if err := json.Unmarshal(value, &f); err == nil && !bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
				out.Features[key] = f
			}
		}
	}
	*p = out
	return nil
}

func (p PlayerFeaturePoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Features)+3)
	for k, v := range p.Features {
		out[k] = v
	}
	out["player"] = p.Player
	if p.HasCluster {
		out["cluster"] = p.Cluster
	}
	if p.Color != "" {
		out["cluster_color"] = p.Color
	}
	return json.Marshal(out)
}

// ClusterSummary aggregates one cluster. The Has* flags record which
// derived fields the payload actually carried.
type ClusterSummary struct {
	ID                int     `json:"cluster"`
	AvgElo            float64 `json:"avg_elo"`
	AvgOpponentElo    float64 `json:"avg_opponent_elo"`
	PlayerCount       int     `json:"player_count"`
	Color             string  `json:"color,omitempty"`
	HasAvgElo         bool    `json:"-"`
	HasAvgOpponentElo bool    `json:"-"`
	HasPlayerCount    bool    `json:"-"`
}

type clusterSummaryWire struct {
	Cluster        json.RawMessage `json:"cluster"`
	ID             json.RawMessage `json:"id"`
	AvgElo         *float64        `json:"avg_elo"`
	AvgOpponentElo *float64        `json:"avg_opponent_elo"`
	PlayerCount    *int            `json:"player_count"`
	Color          string          `json:"color"`
	ClusterColor   string          `json:"cluster_color"`
}

func (c *ClusterSummary) UnmarshalJSON(data []byte) error {
	var w clusterSummaryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	idRaw := w.Cluster
	if len(idRaw) == 0 {
		idRaw = w.ID
	}
	id, ok, err := decodeClusterID(idRaw)
	if err != nil {
		return fmt.Errorf("cluster summary id: %w", err)
	}
	if !ok {
		return fmt.Errorf("cluster summary record without cluster id")
	}

	out := ClusterSummary{ID: id, Color: w.Color}
	if out.Color == "" {
		out.Color = w.ClusterColor
	}
	if w.AvgElo != nil {
		out.AvgElo, out.HasAvgElo = *w.AvgElo, true
	}
	if w.AvgOpponentElo != nil {
		out.AvgOpponentElo, out.HasAvgOpponentElo = *w.AvgOpponentElo, true
	}
	if w.PlayerCount != nil {
		out.PlayerCount, out.HasPlayerCount = *w.PlayerCount, true
	}
	*c = out
	return nil
}

// DetailedClusterStats extends a cluster's summary with game volume and
// per-variant averages.
type DetailedClusterStats struct {
	Summary     ClusterSummary     `json:"summary"`
	AvgGames    float64            `json:"avg_games"`
	HasAvgGames bool               `json:"-"`
	Variants    map[string]float64 `json:"variants,omitempty"`
}

type detailedClusterStatsWire struct {
	AvgElo         *float64           `json:"avg_elo"`
	AvgOpponentElo *float64           `json:"avg_opponent_elo"`
	PlayerCount    *int               `json:"player_count"`
	AvgGames       *float64           `json:"avg_games"`
	Variants       map[string]float64 `json:"variants"`
}

// ClusteringResponse is the body returned by POST /api/kmeans.
type ClusteringResponse struct {
	PlayerFeatures       []PlayerFeaturePoint
	ClusterSummary       []ClusterSummary
	DetailedClusterStats map[int]DetailedClusterStats
	Clusters             []int
	Centroids            [][]float64
	SilhouetteScore      *float64
	DimensionReduction   string
	PlotType             string
	ScatterPlot          string
}

type clusteringResponseWire struct {
	PlayerFeatures       []PlayerFeaturePoint                `json:"player_features"`
	ClusterSummary       []ClusterSummary                    `json:"cluster_summary"`
	DetailedClusterStats map[string]detailedClusterStatsWire `json:"detailed_cluster_stats"`
	Clusters             []int                               `json:"clusters"`
	Centroids            [][]float64                         `json:"centroids"`
	SilhouetteScore      *float64                            `json:"silhouette_score"`
	DimensionReduction   string                              `json:"dimension_reduction"`
	PlotType             string                              `json:"plot_type"`
	ScatterPlot          string                              `json:"scatter_plot"`
}

func (r *ClusteringResponse) UnmarshalJSON(data []byte) error {
	var w clusteringResponseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := ClusteringResponse{
		PlayerFeatures:     w.PlayerFeatures,
		ClusterSummary:     w.ClusterSummary,
		Clusters:           w.Clusters,
		Centroids:          w.Centroids,
		SilhouetteScore:    w.SilhouetteScore,
		DimensionReduction: w.DimensionReduction,
		PlotType:           w.PlotType,
		ScatterPlot:        w.ScatterPlot,
	}

	// Older payloads carry labels only in the parallel clusters array.
	for i := range out.PlayerFeatures {
		if !out.PlayerFeatures[i].HasCluster && i < len(w.Clusters) {
			out.PlayerFeatures[i].Cluster = w.Clusters[i]
			out.PlayerFeatures[i].HasCluster = true
		}
	}

	if len(w.DetailedClusterStats) > 0 {
		out.DetailedClusterStats = make(map[int]DetailedClusterStats, len(w.DetailedClusterStats))
		for key, d := range w.DetailedClusterStats {
			id, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil {
				return fmt.Errorf("detailed_cluster_stats key %q is not a cluster id", key)
			}
			stats := DetailedClusterStats{
				Summary:  ClusterSummary{ID: id},
				Variants: d.Variants,
			}
			if d.AvgElo != nil {
				stats.Summary.AvgElo, stats.Summary.HasAvgElo = *d.AvgElo, true
			}
			if d.AvgOpponentElo != nil {
				stats.Summary.AvgOpponentElo, stats.Summary.HasAvgOpponentElo = *d.AvgOpponentElo, true
			}
			if d.PlayerCount != nil {
				stats.Summary.PlayerCount, stats.Summary.HasPlayerCount = *d.PlayerCount, true
			}
			if d.AvgGames != nil {
				stats.AvgGames, stats.HasAvgGames = *d.AvgGames, true
			}
			out.DetailedClusterStats[id] = stats
		}
	}

	*r = out
	return nil
}

// DetailedClusterIDs returns the ids of DetailedClusterStats in ascending order.
func (r ClusteringResponse) DetailedClusterIDs() []int {
	ids := make([]int, 0, len(r.DetailedClusterStats))
	for id := range r.DetailedClusterStats {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// decodeClusterID accepts integral JSON numbers and numeric strings. A null
// or absent value reports ok=false.
func decodeClusterID(raw json.RawMessage) (id int, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}
	var n json.Number
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		n = json.Number(strings.TrimSpace(s))
	} else if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false, err
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false, fmt.Errorf("cluster id %q is not numeric", string(raw))
	}
	if f != float64(int(f)) {
		return 0, false, fmt.Errorf("cluster id %v is not an integer", f)
	}
	return int(f), true, nil
}
