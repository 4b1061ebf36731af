package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Thulrus/ParallaxIndex/internal/domain"
)

// SnapshotRepo persists distilled snapshots. Rows are insert-only; the single
// mutation path besides Save is the ON DELETE CASCADE from sources.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

const snapshotColumns = `id, source_id, collected_at, sentiment, confidence, volatility, terms, term_entropy, anomaly_score, coverage, metadata`

func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var s domain.Snapshot
	err := row.Scan(
		&s.ID,
		&s.SourceID,
		&s.CollectedAt,
		&s.Sentiment,
		&s.Confidence,
		&s.Volatility,
		&s.Terms,
		&s.TermEntropy,
		&s.AnomalyScore,
		&s.Coverage,
		&s.Metadata,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SnapshotRepo) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	query := `
		INSERT INTO snapshots (source_id, collected_at, sentiment, confidence, volatility, terms, term_entropy, anomaly_score, coverage, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	terms := snapshot.Terms
	if terms == nil {
		terms = []domain.TermStat{}
	}

	err := r.pool.QueryRow(ctx, query,
		snapshot.SourceID,
		snapshot.CollectedAt,
		snapshot.Sentiment,
		snapshot.Confidence,
		snapshot.Volatility,
		terms,
		snapshot.TermEntropy,
		snapshot.AnomalyScore,
		snapshot.Coverage,
		snapshot.Metadata,
	).Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetLatest returns the most recent snapshot for a source, or nil when the
// source has no readings yet.
func (r *SnapshotRepo) GetLatest(ctx context.Context, sourceID uuid.UUID) (*domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE source_id = $1
		ORDER BY collected_at DESC, id DESC
		LIMIT 1`

	snapshot, err := scanSnapshot(r.pool.QueryRow(ctx, query, sourceID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return snapshot, nil
}

// GetHistory returns up to limit snapshots for a source, most recent first.
func (r *SnapshotRepo) GetHistory(ctx context.Context, sourceID uuid.UUID, limit int) ([]domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE source_id = $1
		ORDER BY collected_at DESC, id DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot history: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshots: %w", err)
	}
	return snapshots, nil
}
