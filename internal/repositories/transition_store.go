package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"schoolcrm/internal/models"
	"schoolcrm/internal/services"
)

// TransitionStore backs the transition engine with Postgres. All writes of a
// transition run on a single *sql.Tx handed out through InTx; rollback on any
// error keeps deal, history and contact state consistent.
type TransitionStore struct {
	db *sql.DB
}

func NewTransitionStore(db *sql.DB) *TransitionStore {
	return &TransitionStore{db: db}
}

const dealColumns = `id, contact_profile_id, pipeline_id, stage_id, value, status, COALESCE(loss_reason, ''), responsible_user_id, moved_at, created_at`

func scanDeal(row *sql.Row) (*models.Deal, error) {
	d := &models.Deal{}
	err := row.Scan(
		&d.ID,
		&d.ContactProfileID,
		&d.PipelineID,
		&d.StageID,
		&d.Value,
		&d.Status,
		&d.LossReason,
		&d.ResponsibleID,
		&d.MovedAt,
		&d.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan deal: %w", err)
	}
	return d, nil
}

func (s *TransitionStore) GetDeal(ctx context.Context, id int) (*models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`
	return scanDeal(s.db.QueryRowContext(ctx, query, id))
}

func (s *TransitionStore) GetStage(ctx context.Context, id int) (*models.Stage, error) {
	const query = `
		SELECT id, pipeline_id, name, color, sort_order, kind
		FROM stages
		WHERE id = $1
	`
	st := &models.Stage{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.PipelineID, &st.Name, &st.Color, &st.SortOrder, &st.Kind)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stage by id: %w", err)
	}
	return st, nil
}

func (s *TransitionStore) InTx(ctx context.Context, fn func(tx services.TransitionTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	if err := fn(&transitionTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

type transitionTx struct {
	tx *sql.Tx
}

// UpdateDealStage is the optimistic conflict check: the row is only written
// when the deal is still at the stage the caller read. Zero rows affected
// means another actor committed first.
func (t *transitionTx) UpdateDealStage(ctx context.Context, deal *models.Deal, expectedStageID int) error {
	const query = `
		UPDATE deals
		SET stage_id = $1, status = $2, loss_reason = NULLIF($3, ''), moved_at = $4
		WHERE id = $5 AND stage_id = $6
	`
	res, err := t.tx.ExecContext(ctx, query, deal.StageID, deal.Status, deal.LossReason, deal.MovedAt, deal.ID, expectedStageID)
	if err != nil {
		return fmt.Errorf("update deal stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update deal stage: %w", err)
	}
	if affected == 0 {
		return services.ErrConcurrentModification
	}
	return nil
}

func (t *transitionTx) CreateDeal(ctx context.Context, deal *models.Deal) (int, error) {
	const query = `
		INSERT INTO deals (contact_profile_id, pipeline_id, stage_id, value, status, loss_reason, responsible_user_id, moved_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
		RETURNING id
	`
	var id int
	err := t.tx.QueryRowContext(ctx, query,
		deal.ContactProfileID,
		deal.PipelineID,
		deal.StageID,
		deal.Value,
		deal.Status,
		deal.LossReason,
		deal.ResponsibleID,
		deal.MovedAt,
		deal.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create deal: %w", err)
	}
	return id, nil
}

// AppendHistory is insert-only; no update or delete statement for
// deal_history exists anywhere in the codebase.
func (t *transitionTx) AppendHistory(ctx context.Context, e *models.HistoryEntry) error {
	const query = `
		INSERT INTO deal_history (deal_id, from_stage_id, to_stage_id, moved_by_user_id, reason, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
	`
	var from sql.NullInt64
	if e.FromStageID != nil {
		from = sql.NullInt64{Int64: int64(*e.FromStageID), Valid: true}
	}
	_, err := t.tx.ExecContext(ctx, query, e.DealID, from, e.ToStageID, e.MovedByID, e.Reason, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (t *transitionTx) GetContact(ctx context.Context, id int) (*models.ContactProfile, error) {
	const query = `
		SELECT id, name, phone, role, lead_status, lead_temperature,
		       COALESCE(current_pipeline_id, 0), COALESCE(current_stage_id, 0),
		       converted_at, lost_at, created_at
		FROM contact_profiles
		WHERE id = $1
		FOR UPDATE
	`
	c := &models.ContactProfile{}
	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Phone,
		&c.Role,
		&c.LeadStatus,
		&c.Temperature,
		&c.CurrentPipelineID,
		&c.CurrentStageID,
		&c.ConvertedAt,
		&c.LostAt,
		&c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact profile: %w", err)
	}
	return c, nil
}

func (t *transitionTx) UpdateContactLeadState(ctx context.Context, c *models.ContactProfile) error {
	const query = `
		UPDATE contact_profiles
		SET role = $1, lead_status = $2,
		    current_pipeline_id = NULLIF($3, 0), current_stage_id = NULLIF($4, 0),
		    converted_at = $5, lost_at = $6
		WHERE id = $7
	`
	_, err := t.tx.ExecContext(ctx, query, c.Role, c.LeadStatus, c.CurrentPipelineID, c.CurrentStageID, c.ConvertedAt, c.LostAt, c.ID)
	if err != nil {
		return fmt.Errorf("update contact lead state: %w", err)
	}
	return nil
}

func (t *transitionTx) FindActiveDeal(ctx context.Context, contactID, pipelineID int) (*models.Deal, error) {
	query := `
		SELECT ` + dealColumns + `
		FROM deals
		WHERE contact_profile_id = $1 AND pipeline_id = $2 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanDeal(t.tx.QueryRowContext(ctx, query, contactID, pipelineID))
}
