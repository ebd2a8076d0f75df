// Package dashboard owns one query slot per independent view and wires the
// stats client, slots and view-model builders together.
package dashboard

import (
	"context"
	"strings"

	"github.com/vytor/chessdash/internal/clusterview"
	"github.com/vytor/chessdash/internal/compareview"
	"github.com/vytor/chessdash/internal/diagnostics"
	"github.com/vytor/chessdash/internal/drilldown"
	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/query"
	"github.com/vytor/chessdash/internal/statsapi"
	"github.com/vytor/chessdash/internal/worker"
)

type Dashboard struct {
	client     statsapi.ClientInterface
	dispatcher worker.Dispatcher
	clusters   *clusterview.Builder
	compare    *compareview.Builder
	resolver   *drilldown.Resolver
	diags      *diagnostics.Collector
	log        *logger.Logger

	stats      *query.Slot[*models.PlayerStats]
	clustering *query.Slot[*clusterview.ViewModel]
	comparison *query.Slot[*compareview.ViewModel]
	examples   *query.Slot[[]string]
	top        *query.Slot[[]models.PlayerStats]
}

type options struct {
	dispatcher worker.Dispatcher
	diags      *diagnostics.Collector
	mode       drilldown.Mode
	palette    []string
	topN       int
}

type Option func(*options)

// WithDispatcher sets where remote calls run. Defaults to worker.Inline.
func WithDispatcher(d worker.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

func WithDiagnostics(c *diagnostics.Collector) Option {
	return func(o *options) { o.diags = c }
}

func WithDrillDownMode(m drilldown.Mode) Option {
	return func(o *options) { o.mode = m }
}

func WithPalette(colors []string) Option {
	return func(o *options) { o.palette = colors }
}

func WithTopContributions(n int) Option {
	return func(o *options) { o.topN = n }
}

func New(client statsapi.ClientInterface, opts ...Option) *Dashboard {
	o := options{topN: compareview.DefaultTopN}
	for _, opt := range opts {
		opt(&o)
	}
	if o.dispatcher == nil {
		o.dispatcher = worker.Inline{}
	}
	if o.diags == nil {
		o.diags = diagnostics.NewCollector(0)
	}

	d := &Dashboard{
		client:     client,
		dispatcher: o.dispatcher,
		clusters:   clusterview.NewBuilder(clusterview.WithPalette(o.palette)),
		compare:    compareview.NewBuilder(compareview.WithTopN(o.topN)),
		resolver:   drilldown.NewResolver(client, o.dispatcher, drilldown.WithMode(o.mode)),
		diags:      o.diags,
		log:        logger.Default().WithPrefix("dashboard"),
		stats:      query.NewSlot[*models.PlayerStats]("player_stats"),
		clustering: query.NewSlot[*clusterview.ViewModel]("clustering"),
		comparison: query.NewSlot[*compareview.ViewModel]("comparison"),
		examples:   query.NewSlot[[]string]("example_usernames"),
		top:        query.NewSlot[[]models.PlayerStats]("top_players"),
	}

	// Runs under the clustering slot lock, so a superseded response can
	// never replace the index of the latest one or report its diagnostics.
	d.clustering.OnSuccess(func(vm *clusterview.ViewModel) {
		d.resolver.SetIndex(vm.Index)
		for _, diag := range vm.Diagnostics {
			d.diags.Report(clusterview.DiagnosticsSource, diag)
		}
	})
	return d
}

// dispatch starts slot and hands fn to the dispatcher. The returned token
// identifies the request.
func dispatch[T any](ctx context.Context, d *Dashboard, slot *query.Slot[T], fn func(context.Context) (T, error)) query.Token {
	log := logger.FromContext(ctx).WithPrefix("dashboard").WithField("slot", slot.Name())

	tok := slot.Start()
	err := d.dispatcher.Dispatch(slot.Name(), func(jobCtx context.Context) error {
		_, err := query.Complete(jobCtx, slot, tok, fn)
		return err
	})
	if err != nil {
		log.Error("failed to dispatch token=%d: %v", tok, err)
		slot.Fail(tok, errors.NewInternalError(err))
	}
	return tok
}

// LoadPlayerStats fetches stats for username. An empty username fails
// without leaving the slot's current state.
func (d *Dashboard) LoadPlayerStats(ctx context.Context, username string) (query.Token, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, errors.NewValidationError("username", "must not be empty")
	}
	return dispatch(ctx, d, d.stats, func(ctx context.Context) (*models.PlayerStats, error) {
		return d.client.FetchPlayerStats(ctx, username)
	}), nil
}

func (d *Dashboard) RunClustering(ctx context.Context, params models.ClusterQueryParams) (query.Token, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return 0, err
	}
	return dispatch(ctx, d, d.clustering, func(ctx context.Context) (*clusterview.ViewModel, error) {
		resp, err := d.client.RunClustering(ctx, params)
		if err != nil {
			return nil, err
		}
		return d.clusters.Build(resp, params), nil
	}), nil
}

func (d *Dashboard) Compare(ctx context.Context, player1, player2 string) (query.Token, error) {
	player1, player2 = strings.TrimSpace(player1), strings.TrimSpace(player2)
	if player1 == "" {
		return 0, errors.NewValidationError("player1", "must not be empty")
	}
	if player2 == "" {
		return 0, errors.NewValidationError("player2", "must not be empty")
	}
	return dispatch(ctx, d, d.comparison, func(ctx context.Context) (*compareview.ViewModel, error) {
		result, err := d.client.ComparePlayers(ctx, player1, player2)
		if err != nil {
			return nil, err
		}
		return d.compare.Build(player1, player2, result)
	}), nil
}

func (d *Dashboard) LoadExamples(ctx context.Context) query.Token {
	return dispatch(ctx, d, d.examples, d.client.ExampleUsernames)
}

func (d *Dashboard) LoadTopPlayers(ctx context.Context) query.Token {
	return dispatch(ctx, d, d.top, d.client.TopPlayers)
}

// SelectPoint drills down into point i of the latest clustering result.
func (d *Dashboard) SelectPoint(ctx context.Context, i int) (drilldown.Selection, error) {
	return d.resolver.Select(ctx, i)
}

func (d *Dashboard) Stats() query.Snapshot[*models.PlayerStats] { return d.stats.Snapshot() }

func (d *Dashboard) Clustering() query.Snapshot[*clusterview.ViewModel] {
	return d.clustering.Snapshot()
}

func (d *Dashboard) Comparison() query.Snapshot[*compareview.ViewModel] {
	return d.comparison.Snapshot()
}

func (d *Dashboard) Examples() query.Snapshot[[]string] { return d.examples.Snapshot() }

func (d *Dashboard) TopPlayers() query.Snapshot[[]models.PlayerStats] { return d.top.Snapshot() }

func (d *Dashboard) Selection() (drilldown.Selection, bool) { return d.resolver.Selection() }

func (d *Dashboard) Detail() query.Snapshot[*models.PlayerStats] { return d.resolver.Detail() }

func (d *Dashboard) Diagnostics() []diagnostics.Entry { return d.diags.Entries() }
