package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/chessdash/internal/logger"
	"github.com/vytor/chessdash/internal/models"
	"github.com/vytor/chessdash/internal/repository"
)

type playerRepository struct {
	db *sql.DB
}

// NewPlayerRepository creates a new PlayerRepository implementation
func NewPlayerRepository(db *sql.DB) repository.PlayerRepository {
	return &playerRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertPlayer(ctx context.Context, db execer, stats models.PlayerStats) error {
	body, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats for %s: %w", stats.Username, err)
	}
	query, args, err := sqlBuilder.Insert("players").
		Columns("username", "total_games", "stats_json").
		Values(stats.Username, stats.TotalGames, string(body)).
		Suffix("ON CONFLICT(username) DO UPDATE SET total_games = excluded.total_games, stats_json = excluded.stats_json, updated_at = CURRENT_TIMESTAMP").
		ToSql()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, query, args...)
	return err
}

func (r *playerRepository) Upsert(ctx context.Context, stats models.PlayerStats) error {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("upserting player: username=%s, total_games=%d", stats.Username, stats.TotalGames)

	if err := upsertPlayer(ctx, r.db, stats); err != nil {
		log.Error("failed to upsert player: %v", err)
		return err
	}
	return nil
}

func (r *playerRepository) UpsertBatch(ctx context.Context, stats []models.PlayerStats) error {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("upserting %d players", len(stats))

	if len(stats) == 0 {
		return nil
	}
	return tx(ctx, r.db, func(tx *sql.Tx) error {
		for _, s := range stats {
			if err := upsertPlayer(ctx, tx, s); err != nil {
				log.Error("failed to upsert player %s: %v", s.Username, err)
				return err
			}
		}
		return nil
	})
}

func (r *playerRepository) Get(ctx context.Context, username string) (*models.PlayerStats, error) {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("getting player: username=%s", username)

	query, args, err := sqlBuilder.Select("stats_json").
		From("players").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var body string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("player not found: username=%s", username)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get player: %v", err)
		return nil, err
	}

	var stats models.PlayerStats
	if err := json.Unmarshal([]byte(body), &stats); err != nil {
		log.Error("failed to decode stats for %s: %v", username, err)
		return nil, fmt.Errorf("decode stats for %s: %w", username, err)
	}
	return &stats, nil
}

// MostActive returns up to limit usernames ordered by game count.
func (r *playerRepository) MostActive(ctx context.Context, limit int) ([]string, error) {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("listing most active players: limit=%d", limit)

	q := sqlBuilder.Select("username").
		From("players").
		OrderBy("total_games DESC", "username ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list most active players: %v", err)
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			log.Error("failed to scan player row: %v", err)
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *playerRepository) WithMinGames(ctx context.Context, minGames int) ([]models.PlayerStats, error) {
	log := logger.FromContext(ctx).WithPrefix("player_repo")
	log.Debug("listing players with at least %d games", minGames)

	query, args, err := sqlBuilder.Select("stats_json").
		From("players").
		Where(squirrel.GtOrEq{"total_games": minGames}).
		OrderBy("total_games DESC", "username ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list players: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.PlayerStats
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			log.Error("failed to scan player row: %v", err)
			return nil, err
		}
		var s models.PlayerStats
		if err := json.Unmarshal([]byte(body), &s); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
		out = append(out, s)
	}
	log.Debug("found %d players", len(out))
	return out, rows.Err()
}

func (r *playerRepository) Count(ctx context.Context) (int, error) {
	query, args, err := sqlBuilder.Select("COUNT(*)").From("players").ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).WithPrefix("player_repo").Error("failed to count players: %v", err)
		return 0, err
	}
	return n, nil
}
