// Package statsapi is the typed client for the external stats service.
package statsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
)

const maxErrorBody = 1024

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		log:        logger.Default().WithPrefix("statsapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FetchPlayerStats(ctx context.Context, username string) (*models.PlayerStats, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.NewValidationError("username", "must not be empty")
	}

	q := url.Values{}
	q.Set("username", username)

	var out models.PlayerStats
	playerNotFound := func(detail string) *errors.AppError { return notFound("player", username, detail) }
	if err := c.doAs(ctx, "fetch player stats", http.MethodGet, "/chess_stats?"+q.Encode(), nil, &out, playerNotFound); err != nil {
		return nil, err
	}
	if !out.Consistent() {
		logger.FromContext(ctx).WithPrefix("statsapi").WithField("username", username).
			Warn("wins+losses+draws != total_games (%d+%d+%d != %d)", out.Wins, out.Losses, out.Draws, out.TotalGames)
	}
	return &out, nil
}

func (c *Client) RunClustering(ctx context.Context, params models.ClusterQueryParams) (*models.ClusteringResponse, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var out models.ClusteringResponse
	if err := c.do(ctx, "run clustering", http.MethodPost, "/api/kmeans", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ComparePlayers(ctx context.Context, player1, player2 string) (*models.ComparisonResult, error) {
	req := models.ComparePlayersRequest{
		Player1: strings.TrimSpace(player1),
		Player2: strings.TrimSpace(player2),
	}
	if req.Player1 == "" {
		return nil, errors.NewValidationError("player1", "must not be empty")
	}
	if req.Player2 == "" {
		return nil, errors.NewValidationError("player2", "must not be empty")
	}

	var out models.ComparisonResult
	if err := c.do(ctx, "compare players", http.MethodPost, "/compare_players", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExampleUsernames(ctx context.Context) ([]string, error) {
	var out struct {
		Examples []string `json:"examples"`
	}
	if err := c.do(ctx, "example usernames", http.MethodGet, "/example_usernames", nil, &out); err != nil {
		return nil, err
	}
	return out.Examples, nil
}

func (c *Client) TopPlayers(ctx context.Context) ([]models.PlayerStats, error) {
	var out struct {
		TopPlayers []models.PlayerStats `json:"top_players"`
	}
	if err := c.do(ctx, "top players", http.MethodGet, "/top_players", nil, &out); err != nil {
		return nil, err
	}
	return out.TopPlayers, nil
}

// notFound builds a NOT_FOUND error carrying the service's own message.
func notFound(resource string, id any, detail string) *errors.AppError {
	err := errors.NewNotFoundError(resource, id)
	if detail != "" {
		err.Message = fmt.Sprintf("%s: %s", err.Message, detail)
	}
	return err
}

// do issues exactly one request and classifies the outcome.
func (c *Client) do(ctx context.Context, op, method, path string, body any, out any) error {
	resource, _, _ := strings.Cut(path, "?")
	return c.doAs(ctx, op, method, path, body, out, func(detail string) *errors.AppError {
		return notFound(op, resource, detail)
	})
}

// doAs is do with a caller-chosen NOT_FOUND error.
func (c *Client) doAs(ctx context.Context, op, method, path string, body any, out any, onNotFound func(detail string) *errors.AppError) error {
	log := logger.FromContext(ctx).WithPrefix("statsapi").WithField("op", op)

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternalError(fmt.Errorf("%s: encode request: %w", op, err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return errors.NewInternalError(fmt.Errorf("%s: %w", op, err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("%s %s", method, req.URL.String())
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("request failed: %v", err)
		return errors.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	log.Debug("response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := errorMessage(raw)
		if resp.StatusCode == http.StatusNotFound {
			log.Debug("not found: %s", msg)
			return onNotFound(msg)
		}
		log.Error("request failed: status=%d, body=%s", resp.StatusCode, msg)
		return errors.NewServerError(op, resp.StatusCode, msg)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read response: %v", err)
		return errors.NewNetworkError(op, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Error("failed to decode response: %v", err)
		return errors.NewParseError(op, err)
	}
	return nil
}

// errorMessage extracts the service's {"error": "..."} message, falling back
// to the raw body text.
func errorMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
