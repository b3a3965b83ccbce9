package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrLevelNotFound is returned by LoadLevel when no blob is stored.
var ErrLevelNotFound = errors.New("level not found")

// LevelRow is one stored level blob.
type LevelRow struct {
	WorldName     string
	LevelName     string
	CustomVersion int32
	MemberCount   int32
	Payload       []byte
	SavedAt       time.Time
}

type LevelRepo struct {
	db *DB
}

func NewLevelRepo(db *DB) *LevelRepo {
	return &LevelRepo{db: db}
}

// SaveLevel upserts the blob and appends a history row in one transaction.
func (r *LevelRepo) SaveLevel(ctx context.Context, row *LevelRow) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save level begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO levels (world_name, level_name, custom_version, member_count, payload, saved_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (world_name, level_name) DO UPDATE
		 SET custom_version = EXCLUDED.custom_version,
		     member_count   = EXCLUDED.member_count,
		     payload        = EXCLUDED.payload,
		     saved_at       = EXCLUDED.saved_at`,
		row.WorldName, row.LevelName, row.CustomVersion, row.MemberCount, row.Payload,
	); err != nil {
		return fmt.Errorf("save level upsert: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO level_history (world_name, level_name, custom_version, payload_size)
		 VALUES ($1, $2, $3, $4)`,
		row.WorldName, row.LevelName, row.CustomVersion, len(row.Payload),
	); err != nil {
		return fmt.Errorf("save level history: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *LevelRepo) LoadLevel(ctx context.Context, worldName, levelName string) (*LevelRow, error) {
	row := &LevelRow{WorldName: worldName, LevelName: levelName}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT custom_version, member_count, payload, saved_at
		 FROM levels WHERE world_name = $1 AND level_name = $2`,
		worldName, levelName,
	).Scan(&row.CustomVersion, &row.MemberCount, &row.Payload, &row.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLevelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load level %s/%s: %w", worldName, levelName, err)
	}
	return row, nil
}

// ListLevels returns the level names stored for a world.
func (r *LevelRepo) ListLevels(ctx context.Context, worldName string) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT level_name FROM levels WHERE world_name = $1 ORDER BY level_name`, worldName)
	if err != nil {
		return nil, fmt.Errorf("list levels %s: %w", worldName, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("list levels %s: scan: %w", worldName, err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list levels %s: %w", worldName, err)
	}
	return names, nil
}
