package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vytor/chessdash/internal/db"
	"github.com/vytor/chessdash/internal/fixtures"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/repository/sqlite"
)

func (a *app) fixturesCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Manage and serve the offline stats service",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "fixture database path (overrides FIXTURE_DB_PATH)")

	open := func() (*db.DB, error) {
		path := a.cfg.FixtureDBPath
		if dbPath != "" {
			path = dbPath
		}
		return db.Open(path)
	}

	cmd.AddCommand(a.importPGNCmd(open))
	cmd.AddCommand(a.loadPayloadCmd(open))
	cmd.AddCommand(a.fixtureServeCmd(open))
	return cmd
}

type opener func() (*db.DB, error)

func (a *app) importPGNCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import-pgn <file.pgn>",
		Short: "Compute per-player statistics from a PGN collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open pgn: %w", err)
			}
			defer f.Close()

			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()

			summary, err := fixtures.NewImporter(sqlite.NewPlayerRepository(database.DB)).Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d games for %d players (%d malformed, %d unrated skipped)\n",
				summary.Games, summary.Players, summary.Malformed, summary.Unrated)
			return nil
		},
	}
}

func (a *app) loadPayloadCmd(open opener) *cobra.Command {
	var (
		kind    string
		params  models.ClusterQueryParams
		xAxis   string
		yAxis   string
		player1 string
		player2 string
	)
	cmd := &cobra.Command{
		Use:   "load-payload <file.json|->",
		Short: "Store a canned clustering or comparison response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()

			loader := fixtures.NewPayloadLoader(sqlite.NewPayloadRepository(database.DB))
			var key string
			switch kind {
			case "kmeans":
				params.XAxis = models.Axis(xAxis)
				params.YAxis = models.Axis(yAxis)
				key, err = loader.LoadClustering(cmd.Context(), params, body)
			case "compare":
				key, err = loader.LoadComparison(cmd.Context(), player1, player2, body)
			default:
				return fmt.Errorf("unknown payload kind %q (want kmeans or compare)", kind)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s payload %s\n", kind, key)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "kmeans", "payload kind: kmeans or compare")
	cmd.Flags().IntVarP(&params.NumClusters, "clusters", "k", 3, "number of clusters the payload answers")
	cmd.Flags().StringVar(&xAxis, "x", string(models.AxisAvgElo), "x axis feature")
	cmd.Flags().StringVar(&yAxis, "y", string(models.AxisAvgOpponentElo), "y axis feature")
	cmd.Flags().StringVar(&params.ReductionMethod, "reduction", models.ReductionPCA, "reduction method")
	cmd.Flags().StringVar(&params.PlotType, "plot", models.PlotTypeScatter, "plot type")
	cmd.Flags().StringVar(&player1, "player1", "", "first player of a comparison")
	cmd.Flags().StringVar(&player2, "player2", "", "second player of a comparison")
	return cmd
}

func (a *app) fixtureServeCmd(open opener) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored statistics over the stats service API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.FixtureAddr
			}
			database, err := open()
			if err != nil {
				return err
			}
			defer database.Close()

			srv := &fixtures.Server{
				Players:      sqlite.NewPlayerRepository(database.DB),
				Payloads:     sqlite.NewPayloadRepository(database.DB),
				ExampleCount: a.cfg.ExampleUsernameCount,
				TopMinGames:  a.cfg.TopPlayerMinGames,
			}
			return a.listen(cmd.Context(), addr, srv.Routes(), nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides FIXTURE_ADDR)")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return body, nil
}
