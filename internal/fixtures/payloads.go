package fixtures

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vytor/chessdash/internal/errors"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/repository"
)

// KMeansKey names the stored clustering answer for p.
func KMeansKey(p models.ClusterQueryParams) string {
	return fmt.Sprintf("kmeans_%d_%s_%s_%s_%s", p.NumClusters, p.XAxis, p.YAxis, p.ReductionMethod, p.PlotType)
}

// CompareKey names the stored comparison of two players. Order matters.
func CompareKey(player1, player2 string) string {
	return strings.TrimSpace(player1) + "|" + strings.TrimSpace(player2)
}

// PayloadLoader validates and stores canned service responses.
type PayloadLoader struct {
	payloads repository.PayloadRepository
}

func NewPayloadLoader(payloads repository.PayloadRepository) *PayloadLoader {
	return &PayloadLoader{payloads: payloads}
}

// LoadClustering stores body as the answer for params once it decodes as a
// clustering response.
func (l *PayloadLoader) LoadClustering(ctx context.Context, params models.ClusterQueryParams, body []byte) (string, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return "", err
	}
	var resp models.ClusteringResponse
	if err := decodeStrict(body, &resp); err != nil {
		return "", errors.NewParseError("decode clustering payload", err)
	}
	key := KMeansKey(params)
	if err := l.payloads.Put(ctx, repository.PayloadKMeans, key, compact(body)); err != nil {
		return "", err
	}
	logger.FromContext(ctx).WithPrefix("fixtures").Info("stored clustering payload %s (%d players)", key, len(resp.PlayerFeatures))
	return key, nil
}

// LoadComparison stores body as the answer for comparing player1 with
// player2.
func (l *PayloadLoader) LoadComparison(ctx context.Context, player1, player2 string, body []byte) (string, error) {
	if strings.TrimSpace(player1) == "" {
		return "", errors.NewValidationError("player1", "cannot be empty")
	}
	if strings.TrimSpace(player2) == "" {
		return "", errors.NewValidationError("player2", "cannot be empty")
	}
	var result models.ComparisonResult
	if err := decodeStrict(body, &result); err != nil {
		return "", errors.NewParseError("decode comparison payload", err)
	}
	key := CompareKey(player1, player2)
	if err := l.payloads.Put(ctx, repository.PayloadCompare, key, compact(body)); err != nil {
		return "", err
	}
	logger.FromContext(ctx).WithPrefix("fixtures").Info("stored comparison payload %s", key)
	return key, nil
}

func decodeStrict(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("empty payload")
	}
	return json.Unmarshal(body, v)
}

func compact(body []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return body
	}
	return buf.Bytes()
}
