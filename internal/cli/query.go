package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vytor/chessdash/internal/dashboard"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/query"
	"github.com/vytor/chessdash/internal/worker"
)

// oneShot builds a dashboard whose requests complete before each call
// returns.
func (a *app) oneShot(cmd *cobra.Command) (*dashboard.Dashboard, context.Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := a.dashboard(worker.Inline{Ctx: ctx})
	return d, ctx, err
}

func result[T any](snap query.Snapshot[T]) (T, error) {
	if snap.Status == query.StatusFailed {
		var zero T
		return zero, snap.Err
	}
	if !snap.HasValue {
		var zero T
		return zero, fmt.Errorf("%s: no result (status %s)", snap.Name, snap.Status)
	}
	return snap.Value, nil
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <username>",
		Short: "Show a player's statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ctx, err := a.oneShot(cmd)
			if err != nil {
				return err
			}
			if _, err := d.LoadPlayerStats(ctx, args[0]); err != nil {
				return err
			}
			stats, err := result(d.Stats())
			if err != nil {
				return err
			}
			return a.renderer(cmd).PlayerStats(stats)
		},
	}
}

func (a *app) clusterCmd() *cobra.Command {
	var (
		params models.ClusterQueryParams
		xAxis  string
		yAxis  string
		fset   string
		sel    int
	)
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster players and show the resulting groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params.XAxis = models.Axis(xAxis)
			params.YAxis = models.Axis(yAxis)
			params.FeatureSet = models.FeatureSet(fset)

			d, ctx, err := a.oneShot(cmd)
			if err != nil {
				return err
			}
			if _, err := d.RunClustering(ctx, params); err != nil {
				return err
			}
			vm, err := result(d.Clustering())
			if err != nil {
				return err
			}
			r := a.renderer(cmd)
			if err := r.Clusters(vm); err != nil {
				return err
			}
			if sel < 0 {
				return nil
			}
			selection, err := d.SelectPoint(ctx, sel)
			if err != nil {
				return err
			}
			return r.Selection(selection)
		},
	}
	def := models.DefaultClusterQueryParams()
	cmd.Flags().IntVarP(&params.NumClusters, "clusters", "k", def.NumClusters, "number of clusters")
	cmd.Flags().StringVar(&xAxis, "x", string(def.XAxis), "x axis feature")
	cmd.Flags().StringVar(&yAxis, "y", string(def.YAxis), "y axis feature")
	cmd.Flags().StringVar(&params.ReductionMethod, "reduction", def.ReductionMethod, "dimensionality reduction method")
	cmd.Flags().StringVar(&params.PlotType, "plot", def.PlotType, "plot type")
	cmd.Flags().StringVar(&fset, "feature-set", "", "feature set: default or all")
	cmd.Flags().IntVar(&sel, "select", -1, "drill down into the point at this index")
	return cmd
}

func (a *app) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <player1> <player2>",
		Short: "Predict a head-to-head result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ctx, err := a.oneShot(cmd)
			if err != nil {
				return err
			}
			if _, err := d.Compare(ctx, args[0], args[1]); err != nil {
				return err
			}
			vm, err := result(d.Comparison())
			if err != nil {
				return err
			}
			return a.renderer(cmd).Comparison(vm)
		},
	}
}

func (a *app) examplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List example usernames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, ctx, err := a.oneShot(cmd)
			if err != nil {
				return err
			}
			d.LoadExamples(ctx)
			names, err := result(d.Examples())
			if err != nil {
				return err
			}
			return a.renderer(cmd).Examples(names)
		},
	}
}

func (a *app) topCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Show the top players leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, ctx, err := a.oneShot(cmd)
			if err != nil {
				return err
			}
			d.LoadTopPlayers(ctx)
			players, err := result(d.TopPlayers())
			if err != nil {
				return err
			}
			return a.renderer(cmd).TopPlayers(players)
		},
	}
}
