package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DesignRecord is one finished generation persisted for the recents feed.
type DesignRecord struct {
	ID          uuid.UUID `json:"id"`
	Style       string    `json:"style"`
	RoomType    string    `json:"room_type"`
	Instruction string    `json:"instruction"`
	Intensity   int       `json:"intensity"`
	Strength    float64   `json:"strength"`
	ImageURL    string    `json:"image_url"`
	Rationale   string    `json:"rationale"`
	CreatedAt   time.Time `json:"created_at"`
}

// DesignRepo persists design history in PostgreSQL.
type DesignRepo struct {
	pool *pgxpool.Pool
}

// NewDesignRepo creates a design history repository backed by PostgreSQL.
func NewDesignRepo(pool *pgxpool.Pool) *DesignRepo {
	return &DesignRepo{pool: pool}
}

// EnsureSchema creates the history table when it does not exist yet. The
// table is small and append-only, so no migration tooling is involved.
func (r *DesignRepo) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS designs (
    id UUID PRIMARY KEY,
    style TEXT NOT NULL,
    room_type TEXT NOT NULL,
    instruction TEXT NOT NULL DEFAULT '',
    intensity INT NOT NULL,
    strength DOUBLE PRECISION NOT NULL,
    image_url TEXT NOT NULL,
    rationale TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure designs schema: %w", err)
	}
	return nil
}

// Insert records a finished generation.
func (r *DesignRepo) Insert(ctx context.Context, rec *DesignRecord) error {
	query := `
INSERT INTO designs (id, style, room_type, instruction, intensity, strength, image_url, rationale, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Style,
		rec.RoomType,
		rec.Instruction,
		rec.Intensity,
		rec.Strength,
		rec.ImageURL,
		rec.Rationale,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

// ListRecent returns the newest records, most recent first.
func (r *DesignRepo) ListRecent(ctx context.Context, limit int) ([]DesignRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
SELECT id, style, room_type, instruction, intensity, strength, image_url, rationale, created_at
FROM designs
ORDER BY created_at DESC
LIMIT $1;
`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	var records []DesignRecord
	for rows.Next() {
		var rec DesignRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Style,
			&rec.RoomType,
			&rec.Instruction,
			&rec.Intensity,
			&rec.Strength,
			&rec.ImageURL,
			&rec.Rationale,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate designs: %w", err)
	}
	return records, nil
}
