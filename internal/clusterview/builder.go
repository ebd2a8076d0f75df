// Package clusterview turns clustering responses into plot-ready view-models.
package clusterview

import (
	"fmt"
	"sort"

	"github.com/vytor/chessdash/internal/diagnostics"
	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
)

const DiagnosticsSource = "clusterview"

// Point is one rendered scatter point. Degraded points carry a fallback
// colour or a zero coordinate.
type Point struct {
	Index      int     `json:"index"`
	Player     string  `json:"player"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Cluster    int     `json:"cluster"`
	HasCluster bool    `json:"has_cluster"`
	Color      string  `json:"color"`
	Degraded   bool    `json:"degraded,omitempty"`
}

type Series struct {
	XAxis  models.Axis `json:"x_axis"`
	YAxis  models.Axis `json:"y_axis"`
	Points []Point     `json:"points"`
}

// ClusterCard is the per-cluster summary record.
type ClusterCard struct {
	ID             int     `json:"cluster"`
	AvgElo         float64 `json:"avg_elo"`
	AvgOpponentElo float64 `json:"avg_opponent_elo"`
	PlayerCount    int     `json:"player_count"`
	Color          string  `json:"color"`
	Synthesized    bool    `json:"synthesized,omitempty"`
}

type VariantCount struct {
	Name    string  `json:"name"`
	Average float64 `json:"average"`
}

// DetailCard projects detailed_cluster_stats. Variants is nil when the
// service sent no breakdown.
type DetailCard struct {
	ID             int            `json:"cluster"`
	AvgElo         float64        `json:"avg_elo"`
	AvgOpponentElo float64        `json:"avg_opponent_elo"`
	PlayerCount    int            `json:"player_count"`
	AvgGames       float64        `json:"avg_games"`
	Color          string         `json:"color"`
	Variants       []VariantCount `json:"variants,omitempty"`
}

type ViewModel struct {
	Params          models.ClusterQueryParams   `json:"params"`
	Series          Series                      `json:"series"`
	Clusters        []ClusterCard               `json:"clusters"`
	Details         []DetailCard                `json:"details,omitempty"`
	Index           []models.PlayerFeaturePoint `json:"-"`
	SilhouetteScore *float64                    `json:"silhouette_score,omitempty"`
	Diagnostics     []*errors.AppError          `json:"-"`
}

// Degraded reports whether any consistency problem was found.
func (vm *ViewModel) Degraded() bool {
	return len(vm.Diagnostics) > 0
}

type Builder struct {
	palette []string
	sink    diagnostics.Sink
	log     *logger.Logger
}

type Option func(*Builder)

func WithPalette(colors []string) Option {
	return func(b *Builder) {
		if len(colors) > 0 {
			b.palette = colors
		}
	}
}

// WithSink forwards every diagnostic to sink.
func WithSink(sink diagnostics.Sink) Option {
	return func(b *Builder) {
		if sink != nil {
			b.sink = sink
		}
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		palette: DefaultPalette,
		sink:    diagnostics.Discard,
		log:     logger.Default().WithPrefix("clusterview"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// build carries per-call state.
type build struct {
	*Builder
	vm      *ViewModel
	palette Palette
	summary map[int]models.ClusterSummary
	// first point-level colour seen per cluster
	pointColor map[int]string
}

// Build never fails: inconsistencies are recorded as diagnostics and the
// affected records are rendered degraded.
func (b *Builder) Build(resp *models.ClusteringResponse, params models.ClusterQueryParams) *ViewModel {
	params = params.WithDefaults()
	vm := &ViewModel{
		Params: params,
		Series: Series{XAxis: params.XAxis, YAxis: params.YAxis, Points: []Point{}},
	}
	if resp == nil {
		vm.Clusters = []ClusterCard{}
		return vm
	}

	st := &build{Builder: b, vm: vm, summary: make(map[int]models.ClusterSummary, len(resp.ClusterSummary))}
	ids := make([]int, 0, len(resp.ClusterSummary))
	for _, s := range resp.ClusterSummary {
		if _, dup := st.summary[s.ID]; dup {
			st.report(errors.NewConsistencyError("cluster %d appears more than once in cluster_summary", s.ID))
			continue
		}
		st.summary[s.ID] = s
		ids = append(ids, s.ID)
	}
	st.palette = newPalette(b.palette, ids)
	st.pointColor = make(map[int]string)
	for _, p := range resp.PlayerFeatures {
		if _, seen := st.pointColor[p.Cluster]; p.HasCluster && p.Color != "" && !seen {
			st.pointColor[p.Cluster] = p.Color
		}
	}

	vm.Index = append([]models.PlayerFeaturePoint(nil), resp.PlayerFeatures...)
	for i, p := range resp.PlayerFeatures {
		vm.Series.Points = append(vm.Series.Points, st.point(i, p))
	}
	vm.Clusters = st.clusters(ids, resp.PlayerFeatures)
	vm.Details = st.details(resp)
	vm.SilhouetteScore = resp.SilhouetteScore

	if vm.Degraded() {
		b.log.Debug("built cluster view with %d points, %d diagnostics", len(vm.Series.Points), len(vm.Diagnostics))
	}
	return vm
}

func (st *build) report(err *errors.AppError) {
	st.vm.Diagnostics = append(st.vm.Diagnostics, err)
	st.sink.Report(DiagnosticsSource, err)
}

// clusterColor resolves the colour shared by a summarized cluster's points
// and its card: summary colour, then the first point colour, then palette.
func (st *build) clusterColor(id int) string {
	if s, ok := st.summary[id]; ok && s.Color != "" {
		return s.Color
	}
	if c, ok := st.pointColor[id]; ok {
		return c
	}
	c, _ := st.palette.Color(id)
	return c
}

func (st *build) point(i int, p models.PlayerFeaturePoint) Point {
	out := Point{Index: i, Player: p.Player, Cluster: p.Cluster, HasCluster: p.HasCluster}

	switch _, known := st.summary[p.Cluster]; {
	case !p.HasCluster:
		st.report(errors.NewConsistencyError("player %q has no cluster assignment", p.Player))
		out.Color, out.Degraded = FallbackColor, true
	case !known:
		st.report(errors.NewConsistencyError("player %q references cluster %d absent from cluster_summary", p.Player, p.Cluster))
		out.Color, out.Degraded = FallbackColor, true
	default:
		out.Color = st.clusterColor(p.Cluster)
	}

	out.X = st.coordinate(p, st.vm.Params.XAxis, &out)
	out.Y = st.coordinate(p, st.vm.Params.YAxis, &out)
	return out
}

func (st *build) coordinate(p models.PlayerFeaturePoint, axis models.Axis, out *Point) float64 {
	v, ok := p.Feature(axis)
	if !ok {
		st.report(errors.NewConsistencyError("player %q has no %s value", p.Player, axis))
		out.Degraded = true
		return 0
	}
	return v
}

type aggregate struct {
	count            int
	eloSum, oppSum   float64
	eloSeen, oppSeen int
}

func (st *build) clusters(ids []int, points []models.PlayerFeaturePoint) []ClusterCard {
	agg := make(map[int]*aggregate, len(ids))
	for _, p := range points {
		if !p.HasCluster {
			continue
		}
		a, ok := agg[p.Cluster]
		if !ok {
			a = &aggregate{}
			agg[p.Cluster] = a
		}
		a.count++
		if v, ok := p.Feature(models.AxisAvgElo); ok {
			a.eloSum += v
			a.eloSeen++
		}
		if v, ok := p.Feature(models.AxisAvgOpponentElo); ok {
			a.oppSum += v
			a.oppSeen++
		}
	}

	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	cards := make([]ClusterCard, 0, len(sorted))
	for _, id := range sorted {
		s := st.summary[id]
		a := agg[id]
		if a == nil {
			a = &aggregate{}
		}
		card := ClusterCard{
			ID:             id,
			AvgElo:         s.AvgElo,
			AvgOpponentElo: s.AvgOpponentElo,
			PlayerCount:    s.PlayerCount,
			Color:          st.clusterColor(id),
		}
		if !s.HasPlayerCount {
			card.PlayerCount = a.count
			card.Synthesized = true
		}
		if !s.HasAvgElo {
			card.AvgElo = mean(a.eloSum, a.eloSeen)
			card.Synthesized = true
		}
		if !s.HasAvgOpponentElo {
			card.AvgOpponentElo = mean(a.oppSum, a.oppSeen)
			card.Synthesized = true
		}
		cards = append(cards, card)
	}
	return cards
}

func (st *build) details(resp *models.ClusteringResponse) []DetailCard {
	ids := resp.DetailedClusterIDs()
	if len(ids) == 0 {
		return nil
	}

	cardByID := make(map[int]ClusterCard, len(st.vm.Clusters))
	for _, c := range st.vm.Clusters {
		cardByID[c.ID] = c
	}

	out := make([]DetailCard, 0, len(ids))
	for _, id := range ids {
		d := resp.DetailedClusterStats[id]
		card, known := cardByID[id]
		dc := DetailCard{ID: id, Color: FallbackColor}
		if known {
			dc.AvgElo, dc.AvgOpponentElo, dc.PlayerCount, dc.Color = card.AvgElo, card.AvgOpponentElo, card.PlayerCount, card.Color
		} else {
			st.report(errors.NewConsistencyError("detailed_cluster_stats references cluster %d absent from cluster_summary", id))
		}
		if d.Summary.HasAvgElo {
			dc.AvgElo = d.Summary.AvgElo
		}
		if d.Summary.HasAvgOpponentElo {
			dc.AvgOpponentElo = d.Summary.AvgOpponentElo
		}
		if d.Summary.HasPlayerCount {
			dc.PlayerCount = d.Summary.PlayerCount
		}
		dc.AvgGames = d.AvgGames
		dc.Variants = variants(d.Variants)
		out = append(out, dc)
	}
	return out
}

func variants(m map[string]float64) []VariantCount {
	if len(m) == 0 {
		return nil
	}
	out := make([]VariantCount, 0, len(m))
	for name, avg := range m {
		out = append(out, VariantCount{Name: name, Average: avg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Label renders a point for tooltips and tables.
func (p Point) Label(axisX, axisY models.Axis) string {
	return fmt.Sprintf("%s (%s=%.0f, %s=%.0f)", p.Player, axisX, p.X, axisY, p.Y)
}
