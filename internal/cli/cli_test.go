package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chessdash/internal/db"
	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/repository"
	"github.com/vytor/chessdash/internal/repository/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func statsService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chess_stats", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != "alice" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"Statistics not found for the given username."}`)
			return
		}
		_, _ = io.WriteString(w, `{"username":"alice","total_games":2,"wins":1,"losses":1,"draws":0,"most_common_opponent":"bob"}`)
	})
	mux.HandleFunc("/api/kmeans", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"player_features": [{"player": "bob", "games": 12, "avg_elo": 1200, "avg_opponent_elo": 1300, "cluster": 0}],
			"cluster_summary": [{"cluster": 0, "avg_elo": 1200, "avg_opponent_elo": 1300, "player_count": 1}]
		}`)
	})
	mux.HandleFunc("/example_usernames", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"examples":["alice","bob"]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatsCommand(t *testing.T) {
	srv := statsService(t)

	out, err := run(t, "--base-url", srv.URL, "--no-color", "stats", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Player: alice")
	assert.Contains(t, out, "Most common opponent: bob")

	_, err = run(t, "--base-url", srv.URL, "stats", "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestStatsCommand_EmptyUsername(t *testing.T) {
	srv := statsService(t)

	_, err := run(t, "--base-url", srv.URL, "stats", "  ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeValidation))
}

func TestClusterCommand_WithSelection(t *testing.T) {
	srv := statsService(t)

	out, err := run(t, "--base-url", srv.URL, "--no-color", "cluster", "-k", "1", "--select", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "Selected #0 bob")

	_, err = run(t, "--base-url", srv.URL, "cluster", "--select", "5")
	assert.True(t, errors.Is(err, errors.ErrCodeValidation))
}

func TestClusterCommand_InvalidParams(t *testing.T) {
	_, err := run(t, "--base-url", "http://127.0.0.1:1", "cluster", "-k", "0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeValidation))
}

func TestExamplesCommand(t *testing.T) {
	srv := statsService(t)

	out, err := run(t, "--base-url", srv.URL, "examples")
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "bob")
}

func TestInvalidDrillDownMode(t *testing.T) {
	srv := statsService(t)

	_, err := run(t, "--base-url", srv.URL, "--drilldown", "sometimes", "stats", "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeValidation))
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, "--base-url", "not a url", "examples")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATS_BASE_URL")
}

func TestFixturesImportAndLoad(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fixtures.db")
	pgnPath := filepath.Join(dir, "games.pgn")
	require.NoError(t, os.WriteFile(pgnPath, []byte(`[White "alice"]
[Black "bob"]
[Result "1-0"]
[WhiteElo "1500"]
[BlackElo "1600"]
[TimeControl "300+0"]
[Opening "Italian Game"]

1. e4 e5 2. Nf3 Nc6 3. Bc4 1-0
`), 0o644))

	out, err := run(t, "fixtures", "--db", dbPath, "import-pgn", pgnPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 games for 2 players")

	payloadPath := filepath.Join(dir, "kmeans.json")
	require.NoError(t, os.WriteFile(payloadPath, []byte(`{"player_features": [], "cluster_summary": []}`), 0o644))
	out, err = run(t, "fixtures", "--db", dbPath, "load-payload", "--kind", "kmeans", "-k", "4", payloadPath)
	require.NoError(t, err)
	assert.Contains(t, out, "kmeans_4_avg_elo_avg_opponent_elo_pca_scatter")

	_, err = run(t, "fixtures", "--db", dbPath, "load-payload", "--kind", "heatmap", payloadPath)
	assert.Error(t, err)

	database, err := db.Open(dbPath)
	require.NoError(t, err)
	defer database.Close()

	alice, err := sqlite.NewPlayerRepository(database.DB).Get(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, 5, alice.GameLengths[0])

	body, err := sqlite.NewPayloadRepository(database.DB).Get(context.Background(), repository.PayloadKMeans, "kmeans_4_avg_elo_avg_opponent_elo_pca_scatter")
	require.NoError(t, err)
	assert.NotNil(t, body)
}
