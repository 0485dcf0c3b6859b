package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"schoolcrm/internal/models"
)

type StageRepository struct {
	db *sql.DB
}

func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{db: db}
}

func (r *StageRepository) Create(ctx context.Context, st *models.Stage) (int, error) {
	const query = `
		INSERT INTO stages (pipeline_id, name, color, sort_order, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var id int
	err := r.db.QueryRowContext(ctx, query, st.PipelineID, st.Name, st.Color, st.SortOrder, st.Kind).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create stage: %w", err)
	}
	return id, nil
}

func (r *StageRepository) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	const query = `
		SELECT id, pipeline_id, name, color, sort_order, kind
		FROM stages
		WHERE id = $1
	`
	st := &models.Stage{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.PipelineID, &st.Name, &st.Color, &st.SortOrder, &st.Kind)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stage by id: %w", err)
	}
	return st, nil
}

func (r *StageRepository) ListByPipeline(ctx context.Context, pipelineID int) ([]*models.Stage, error) {
	const query = `
		SELECT id, pipeline_id, name, color, sort_order, kind
		FROM stages
		WHERE pipeline_id = $1
		ORDER BY sort_order
	`
	rows, err := r.db.QueryContext(ctx, query, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var out []*models.Stage
	for rows.Next() {
		var st models.Stage
		if err := rows.Scan(&st.ID, &st.PipelineID, &st.Name, &st.Color, &st.SortOrder, &st.Kind); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}

// Update rewrites name and color only; kind and sort_order are managed by
// dedicated operations.
func (r *StageRepository) Update(ctx context.Context, st *models.Stage) error {
	const query = `UPDATE stages SET name = $1, color = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, st.Name, st.Color, st.ID)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

// UpdateOrders applies a full renumbering in one transaction so a reader
// never sees duplicate sort_order values within the pipeline.
func (r *StageRepository) UpdateOrders(ctx context.Context, pipelineID int, orders map[int]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reorder stages: %w", err)
	}
	const query = `UPDATE stages SET sort_order = $1 WHERE id = $2 AND pipeline_id = $3`
	for id, order := range orders {
		if _, err := tx.ExecContext(ctx, query, order, id, pipelineID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reorder stage %d: %w", id, err)
		}
	}
	return tx.Commit()
}
