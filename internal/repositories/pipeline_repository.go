package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"schoolcrm/internal/models"
)

type PipelineRepository struct {
	db *sql.DB
}

func NewPipelineRepository(db *sql.DB) *PipelineRepository {
	return &PipelineRepository{db: db}
}

func (r *PipelineRepository) Create(ctx context.Context, p *models.Pipeline) (int, error) {
	const query = `
		INSERT INTO pipelines (name, description, active, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int
	err := r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Active, p.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create pipeline: %w", err)
	}
	return id, nil
}

func (r *PipelineRepository) GetByID(ctx context.Context, id int) (*models.Pipeline, error) {
	const query = `
		SELECT id, name, description, active, created_at
		FROM pipelines
		WHERE id = $1
	`
	p := &models.Pipeline{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline by id: %w", err)
	}
	return p, nil
}

// GetByName is a case-sensitive exact match; duplicate detection depends on it.
func (r *PipelineRepository) GetByName(ctx context.Context, name string) (*models.Pipeline, error) {
	const query = `
		SELECT id, name, description, active, created_at
		FROM pipelines
		WHERE name = $1
	`
	p := &models.Pipeline{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline by name: %w", err)
	}
	return p, nil
}

func (r *PipelineRepository) List(ctx context.Context) ([]*models.Pipeline, error) {
	const query = `
		SELECT id, name, description, active, created_at
		FROM pipelines
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var out []*models.Pipeline
	for rows.Next() {
		var p models.Pipeline
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PipelineRepository) Deactivate(ctx context.Context, id int) error {
	const query = `UPDATE pipelines SET active = FALSE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
