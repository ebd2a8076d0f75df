package repository

import "context"

// PayloadKind groups stored service responses.
type PayloadKind string

const (
	PayloadKMeans  PayloadKind = "kmeans"
	PayloadCompare PayloadKind = "compare"
)

// PayloadRepository handles canned response bodies
type PayloadRepository interface {
	Put(ctx context.Context, kind PayloadKind, key string, body []byte) error
	Get(ctx context.Context, kind PayloadKind, key string) ([]byte, error)
	Keys(ctx context.Context, kind PayloadKind) ([]string, error)
}
