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

type SourceRepo struct {
	pool *pgxpool.Pool
}

func NewSourceRepo(pool *pgxpool.Pool) *SourceRepo {
	return &SourceRepo{pool: pool}
}

const sourceColumns = `id, plugin_id, display_name, enabled, config, weight, polarity, schedule, created_at, updated_at`

func scanSource(row pgx.Row) (*domain.Source, error) {
	var s domain.Source
	var polarity string
	err := row.Scan(
		&s.ID,
		&s.PluginID,
		&s.DisplayName,
		&s.Enabled,
		&s.Config,
		&s.Weight,
		&polarity,
		&s.Schedule,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Polarity = domain.ParsePolarity(polarity)
	return &s, nil
}

func (r *SourceRepo) Create(ctx context.Context, source *domain.Source) error {
	query := `
		INSERT INTO sources (id, plugin_id, display_name, enabled, config, weight, polarity, schedule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		source.ID,
		source.PluginID,
		source.DisplayName,
		source.Enabled,
		source.Config,
		source.Weight,
		string(source.Polarity),
		source.Schedule,
	).Scan(&source.CreatedAt, &source.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}
	return nil
}

func (r *SourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1`

	source, err := scanSource(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by ID: %w", err)
	}
	return source, nil
}

func (r *SourceRepo) List(ctx context.Context, enabledOnly bool) ([]domain.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources ORDER BY created_at`
	if enabledOnly {
		query = `SELECT ` + sourceColumns + ` FROM sources WHERE enabled ORDER BY created_at`
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources: %w", err)
	}
	return sources, nil
}

func (r *SourceRepo) Update(ctx context.Context, source *domain.Source) error {
	query := `
		UPDATE sources
		SET plugin_id = $2, display_name = $3, enabled = $4, config = $5,
		    weight = $6, polarity = $7, schedule = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		source.ID,
		source.PluginID,
		source.DisplayName,
		source.Enabled,
		source.Config,
		source.Weight,
		string(source.Polarity),
		source.Schedule,
	).Scan(&source.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSourceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	return nil
}

func (r *SourceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSourceNotFound
	}
	return nil
}
