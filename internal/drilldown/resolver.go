// Package drilldown maps a clicked scatter point back to its player and
// resolves the player's detail.
package drilldown

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/query"
	"github.com/vytor/chessdash/internal/worker"
)

type Mode int

const (
	// ModeAuto resolves points with full fields locally and fetches the rest.
	ModeAuto Mode = iota
	ModeAlwaysFetch
	ModeNeverFetch
)

func (m Mode) String() string {
	switch m {
	case ModeAlwaysFetch:
		return "always-fetch"
	case ModeNeverFetch:
		return "never-fetch"
	default:
		return "auto"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "always-fetch", "always":
		return ModeAlwaysFetch, nil
	case "never-fetch", "never":
		return ModeNeverFetch, nil
	default:
		return ModeAuto, errors.NewValidationError("drilldown mode", fmt.Sprintf("unknown mode %q", s))
	}
}

// Fetcher is the subset of the stats client the resolver needs.
type Fetcher interface {
	FetchPlayerStats(ctx context.Context, username string) (*models.PlayerStats, error)
}

// Selection is the current drill-down target. Detail is nil while the
// secondary fetch is pending or after it failed.
type Selection struct {
	Index  int
	Player string
	Detail SelectedPlayerDetail
	Token  query.Token
	Status query.Status
	Err    error
}

func (s Selection) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"index":  s.Index,
		"player": s.Player,
		"status": s.Status,
		"kind":   "pending",
	}
	if s.Token != 0 {
		out["token"] = s.Token
	}
	switch d := s.Detail.(type) {
	case LightweightDetail:
		out["kind"] = d.Kind()
		out["point"] = d.Point
	case ResolvedDetail:
		out["kind"] = d.Kind()
		out["stats"] = d.Stats
	}
	if s.Err != nil {
		out["kind"] = "failed"
		out["error"] = map[string]string{"code": errors.CodeOf(s.Err), "message": s.Err.Error()}
	}
	return json.Marshal(out)
}

type Resolver struct {
	mu         sync.Mutex
	points     []models.PlayerFeaturePoint
	selection  *Selection
	mode       Mode
	client     Fetcher
	dispatcher worker.Dispatcher
	detail     *query.Slot[*models.PlayerStats]
	log        *logger.Logger
}

type Option func(*Resolver)

func WithMode(m Mode) Option {
	return func(r *Resolver) { r.mode = m }
}

func NewResolver(client Fetcher, dispatcher worker.Dispatcher, opts ...Option) *Resolver {
	if dispatcher == nil {
		dispatcher = worker.Inline{}
	}
	r := &Resolver{
		client:     client,
		dispatcher: dispatcher,
		detail:     query.NewSlot[*models.PlayerStats]("drilldown_detail"),
		log:        logger.Default().WithPrefix("drilldown"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// SetIndex replaces the point index with the points of a freshly rendered
// series. The previous selection refers to the old series and is dropped.
func (r *Resolver) SetIndex(points []models.PlayerFeaturePoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.points = append([]models.PlayerFeaturePoint(nil), points...)
	r.selection = nil
	r.detail.Reset()
	r.log.Debug("index replaced with %d points", len(points))
}

// Select resolves the point at index i. An out-of-range index fails with a
// validation error and leaves the current selection untouched.
func (r *Resolver) Select(ctx context.Context, i int) (Selection, error) {
	log := logger.FromContext(ctx).WithPrefix("drilldown").WithField("index", i)

	r.mu.Lock()
	if i < 0 || i >= len(r.points) {
		n := len(r.points)
		r.mu.Unlock()
		return Selection{}, errors.NewValidationError("point index", fmt.Sprintf("%d out of range [0,%d)", i, n))
	}

	p := r.points[i]
	sel := Selection{Index: i, Player: p.Player}
	if !r.needsFetch(p) {
		r.detail.Reset()
		sel.Detail = LightweightDetail{Index: i, Point: p}
		sel.Status = query.StatusSucceeded
		r.selection = &sel
		r.mu.Unlock()
		log.Debug("resolved %q from clustered point", p.Player)
		return sel, nil
	}

	tok := r.detail.Start()
	sel.Token = tok
	sel.Status = query.StatusPending
	r.selection = &sel
	r.mu.Unlock()

	log.Debug("fetching detail for %q token=%d", p.Player, tok)
	player := p.Player
	err := r.dispatcher.Dispatch("drilldown_fetch", func(ctx context.Context) error {
		_, err := query.Complete(ctx, r.detail, tok, func(ctx context.Context) (*models.PlayerStats, error) {
			return r.client.FetchPlayerStats(ctx, player)
		})
		return err
	})
	if err != nil {
		log.Error("failed to dispatch detail fetch: %v", err)
		r.detail.Fail(tok, errors.NewInternalError(err))
	}

	return r.withDetail(sel), nil
}

func (r *Resolver) needsFetch(p models.PlayerFeaturePoint) bool {
	if p.Player == "" {
		return false
	}
	switch r.mode {
	case ModeAlwaysFetch:
		return true
	case ModeNeverFetch:
		return false
	default:
		return !p.HasFullFields()
	}
}

// Selection returns the current selection, folding in the detail slot's
// state when a fetch was issued for it.
func (r *Resolver) Selection() (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selection == nil {
		return Selection{}, false
	}
	return r.withDetail(*r.selection), true
}

// withDetail folds the detail slot's state into sel when the slot still
// tracks sel's fetch.
func (r *Resolver) withDetail(sel Selection) Selection {
	if sel.Token == 0 {
		return sel
	}
	snap := r.detail.Snapshot()
	if snap.Token != sel.Token {
		return sel
	}
	sel.Status = snap.Status
	switch snap.Status {
	case query.StatusSucceeded:
		sel.Detail = ResolvedDetail{Index: sel.Index, Stats: snap.Value}
	case query.StatusFailed:
		sel.Err = snap.Err
	}
	return sel
}

// Detail exposes the secondary fetch's own state.
func (r *Resolver) Detail() query.Snapshot[*models.PlayerStats] {
	return r.detail.Snapshot()
}

// Len returns the number of indexed points.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.points)
}
