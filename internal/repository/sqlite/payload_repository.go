package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/repository"
)

type payloadRepository struct {
	db *sql.DB
}

// NewPayloadRepository creates a new PayloadRepository implementation
func NewPayloadRepository(db *sql.DB) repository.PayloadRepository {
	return &payloadRepository{db: db}
}

func (r *payloadRepository) Put(ctx context.Context, kind repository.PayloadKind, key string, body []byte) error {
	log := logger.FromContext(ctx).WithPrefix("payload_repo")
	log.Debug("storing payload: kind=%s, key=%s, bytes=%d", kind, key, len(body))

	query, args, err := sqlBuilder.Insert("payloads").
		Columns("kind", "key", "body").
		Values(string(kind), key, string(body)).
		Suffix("ON CONFLICT(kind, key) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to store payload: %v", err)
		return err
	}
	return nil
}

// Get returns nil when no payload is stored under key.
func (r *payloadRepository) Get(ctx context.Context, kind repository.PayloadKind, key string) ([]byte, error) {
	log := logger.FromContext(ctx).WithPrefix("payload_repo")
	log.Debug("getting payload: kind=%s, key=%s", kind, key)

	query, args, err := sqlBuilder.Select("body").
		From("payloads").
		Where(squirrel.Eq{"kind": string(kind), "key": key}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var body string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("payload not found: kind=%s, key=%s", kind, key)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get payload: %v", err)
		return nil, err
	}
	return []byte(body), nil
}

func (r *payloadRepository) Keys(ctx context.Context, kind repository.PayloadKind) ([]string, error) {
	query, args, err := sqlBuilder.Select("key").
		From("payloads").
		Where(squirrel.Eq{"kind": string(kind)}).
		OrderBy("key ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("payload_repo").Error("failed to list payload keys: %v", err)
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
