// Package cli wires the chessdash commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vytor/chessdash/internal/config"
	"github.com/vytor/chessdash/internal/dashboard"
	"github.com/vytor/chessdash/internal/diagnostics"
	"github.com/vytor/chessdash/internal/drilldown"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/report"
	"github.com/vytor/chessdash/internal/statsapi"
	"github.com/vytor/chessdash/internal/worker"
)

type app struct {
	cfg      config.Config
	baseURL  string
	logLevel string
	noColor  bool
	mode     string
	log      *logger.Logger
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "chessdash",
		Short:         "Chess statistics dashboard",
		Long:          "Query player statistics, clusterings and head-to-head predictions from a chess stats service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "stats service base URL (overrides STATS_BASE_URL)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable coloured output")
	root.PersistentFlags().StringVar(&a.mode, "drilldown", "auto", "drill-down fetch mode: auto, always or never")

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.statsCmd())
	root.AddCommand(a.clusterCmd())
	root.AddCommand(a.compareCmd())
	root.AddCommand(a.examplesCmd())
	root.AddCommand(a.topCmd())
	root.AddCommand(a.fixturesCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = config.Load()
	if a.baseURL != "" {
		a.cfg.StatsBaseURL = a.baseURL
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.log = logger.New(
		logger.WithLevel(logger.ParseLevel(a.cfg.LogLevel)),
		logger.WithColors(!a.noColor),
		logger.WithOutput(cmd.ErrOrStderr()),
	)
	logger.SetDefault(a.log)
	a.log.Debug("stats_base_url=%s", a.cfg.StatsBaseURL)
	a.log.Debug("stats_request_timeout=%s", a.cfg.StatsRequestTimeout)
	return nil
}

func (a *app) client() *statsapi.Client {
	return statsapi.New(a.cfg.StatsBaseURL, statsapi.WithTimeout(a.cfg.StatsRequestTimeout))
}

// dashboard builds a Dashboard over the stats client. A nil dispatcher runs
// every request inline.
func (a *app) dashboard(dispatcher worker.Dispatcher) (*dashboard.Dashboard, error) {
	mode, err := drilldown.ParseMode(a.mode)
	if err != nil {
		return nil, err
	}
	opts := []dashboard.Option{
		dashboard.WithDiagnostics(diagnostics.NewCollector(a.cfg.DiagnosticsCapacity)),
		dashboard.WithDrillDownMode(mode),
	}
	if dispatcher != nil {
		opts = append(opts, dashboard.WithDispatcher(dispatcher))
	}
	return dashboard.New(a.client(), opts...), nil
}

func (a *app) renderer(cmd *cobra.Command) *report.Renderer {
	return report.New(cmd.OutOrStdout(), !a.noColor)
}
