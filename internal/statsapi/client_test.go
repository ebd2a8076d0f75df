package statsapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/models"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/"), &calls
}

func TestFetchPlayerStats(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/chess_stats", r.URL.Path)
		assert.Equal(t, "alice smith", r.URL.Query().Get("username"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"username":"alice smith","total_games":3,"wins":2,"losses":1,"draws":0,"most_common_openings":[{"name":"Sicilian Defense","count":3}]}`)
	})

	stats, err := client.FetchPlayerStats(context.Background(), "  alice smith ")
	require.NoError(t, err)
	assert.Equal(t, "alice smith", stats.Username)
	assert.Equal(t, 3, stats.TotalGames)
	require.Len(t, stats.Openings, 1)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchPlayerStats_EmptyUsernameIssuesNoRequest(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := client.FetchPlayerStats(context.Background(), name)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeValidation))
	}
	assert.Zero(t, calls.Load())
}

func TestFetchPlayerStats_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantMsg  string
	}{
		{name: "unknown user", status: http.StatusNotFound, body: `{"error":"No games found for user"}`, wantCode: errors.ErrCodeNotFound, wantMsg: "player not found: ghost: No games found for user"},
		{name: "server error with message", status: http.StatusInternalServerError, body: `{"error":"database offline"}`, wantCode: errors.ErrCodeServer, wantMsg: "database offline"},
		{name: "bad request", status: http.StatusBadRequest, body: `Username is required`, wantCode: errors.ErrCodeServer, wantMsg: "status 400: Username is required"},
		{name: "malformed json", status: http.StatusOK, body: `{"username": `, wantCode: errors.ErrCodeParse},
		{name: "wrong shape", status: http.StatusOK, body: `[1,2,3]`, wantCode: errors.ErrCodeParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.FetchPlayerStats(context.Background(), "ghost")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, int32(1), calls.Load(), "exactly one request, no retries")
		})
	}
}

func TestFetchPlayerStats_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).FetchPlayerStats(context.Background(), "alice")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNetwork, errors.CodeOf(err))
}

func TestFetchPlayerStats_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).FetchPlayerStats(context.Background(), "alice")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNetwork, errors.CodeOf(err))
}

func TestRunClustering(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/kmeans", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"num_clusters":     float64(5),
			"x_axis":           "avg_elo",
			"y_axis":           "avg_opponent_elo",
			"reduction_method": "pca",
			"plot_type":        "scatter",
		}, body)

		_, _ = io.WriteString(w, `{
			"player_features": [{"player": "bob", "avg_elo": 1200, "avg_opponent_elo": 1300, "cluster": 1}],
			"cluster_summary": [{"cluster": 1, "avg_elo": 1200, "avg_opponent_elo": 1300, "player_count": 1}]
		}`)
	})

	resp, err := client.RunClustering(context.Background(), models.ClusterQueryParams{NumClusters: 5})
	require.NoError(t, err)
	require.Len(t, resp.PlayerFeatures, 1)
	assert.Equal(t, "bob", resp.PlayerFeatures[0].Player)
	require.Len(t, resp.ClusterSummary, 1)
}

func TestRunClustering_InvalidParamsIssueNoRequest(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.RunClustering(context.Background(), models.ClusterQueryParams{NumClusters: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeValidation))

	_, err = client.RunClustering(context.Background(), models.ClusterQueryParams{NumClusters: 2, XAxis: "rating"})
	assert.True(t, errors.Is(err, errors.ErrCodeValidation))
	assert.Zero(t, calls.Load())
}

func TestComparePlayers(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compare_players", r.URL.Path)
		var req models.ComparePlayersRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, models.ComparePlayersRequest{Player1: "alice", Player2: "bob"}, req)

		_, _ = io.WriteString(w, `{
			"player1": {"username": "alice", "total_games": 1, "wins": 1},
			"player2": {"username": "bob", "total_games": 1, "losses": 1},
			"player1_prediction": {"result": "Win", "feature_contributions": [["difference", 0.4]]},
			"predicted_winner": "alice",
			"comparison_basis": "rating difference"
		}`)
	})

	res, err := client.ComparePlayers(context.Background(), " alice", "bob ")
	require.NoError(t, err)
	assert.Equal(t, "alice", res.PredictedWinner)
	assert.Equal(t, "rating difference", res.ComparisonBasis)
	require.NotNil(t, res.Player1Prediction)
	assert.Equal(t, "Win", res.Player1Prediction.Result)
	assert.Nil(t, res.ColorSpecific)
}

func TestComparePlayers_NotFoundKeepsServiceMessage(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": "Statistics not found for player: bob"}`)
	})

	_, err := client.ComparePlayers(context.Background(), "alice", "bob")
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeNotFound, appErr.Code)
	assert.Equal(t, "compare players not found: /compare_players: Statistics not found for player: bob", appErr.Message)
}

func TestComparePlayers_Validation(t *testing.T) {
	client, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.ComparePlayers(context.Background(), "alice", " ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "player2")

	_, err = client.ComparePlayers(context.Background(), "", "bob")
	assert.Contains(t, err.Error(), "player1")
	assert.Zero(t, calls.Load())
}

func TestExampleUsernamesAndTopPlayers(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/example_usernames":
			_, _ = io.WriteString(w, `{"examples": ["alice", "bob"]}`)
		case "/top_players":
			_, _ = io.WriteString(w, `{"top_players": [{"username": "carol", "total_games": 120, "win_percentage": 61.5}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	examples, err := client.ExampleUsernames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, examples)

	top, err := client.TopPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "carol", top[0].Username)
	assert.Equal(t, 61.5, top[0].WinPercentage)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "boom", errorMessage([]byte(`{"error": "boom"}`)))
	assert.Equal(t, "plain text", errorMessage([]byte(" plain text\n")))
	assert.Equal(t, `{"detail": "x"}`, errorMessage([]byte(`{"detail": "x"}`)))
}
