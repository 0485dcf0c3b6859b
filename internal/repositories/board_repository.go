package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"schoolcrm/internal/models"
)

// BoardRepository serves the read side: board projection and history. The
// last-message preview comes from the externally owned messages table; this
// core never writes it.
type BoardRepository struct {
	db *sql.DB
}

func NewBoardRepository(db *sql.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) GetPipeline(ctx context.Context, id int) (*models.Pipeline, error) {
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
		return nil, fmt.Errorf("get pipeline: %w", err)
	}
	return p, nil
}

func (r *BoardRepository) ListStages(ctx context.Context, pipelineID int) ([]*models.Stage, error) {
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

func (r *BoardRepository) ListDealCards(ctx context.Context, pipelineID int) ([]*models.DealCard, error) {
	const query = `
		SELECT d.id, d.contact_profile_id, d.pipeline_id, d.stage_id, d.value, d.status,
		       COALESCE(d.loss_reason, ''), d.responsible_user_id, d.moved_at, d.created_at,
		       c.name, c.phone, c.lead_temperature,
		       COALESCE(u.name, ''),
		       m.body, m.sent_at
		FROM deals d
		JOIN contact_profiles c ON c.id = d.contact_profile_id
		LEFT JOIN users u ON u.id = d.responsible_user_id
		LEFT JOIN LATERAL (
			SELECT body, sent_at
			FROM messages
			WHERE contact_profile_id = d.contact_profile_id
			ORDER BY sent_at DESC
			LIMIT 1
		) m ON TRUE
		WHERE d.pipeline_id = $1
		ORDER BY d.moved_at DESC, d.id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list deal cards: %w", err)
	}
	defer rows.Close()

	var out []*models.DealCard
	for rows.Next() {
		var card models.DealCard
		var body sql.NullString
		var sentAt sql.NullTime
		err := rows.Scan(
			&card.ID,
			&card.ContactProfileID,
			&card.PipelineID,
			&card.StageID,
			&card.Value,
			&card.Status,
			&card.LossReason,
			&card.ResponsibleID,
			&card.MovedAt,
			&card.CreatedAt,
			&card.ContactName,
			&card.ContactPhone,
			&card.Temperature,
			&card.ResponsibleName,
			&body,
			&sentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan deal card: %w", err)
		}
		if body.Valid {
			card.LastMessage = &models.MessagePreview{Body: body.String, SentAt: sentAt.Time}
		}
		out = append(out, &card)
	}
	return out, rows.Err()
}

func (r *BoardRepository) GetDeal(ctx context.Context, id int) (*models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals WHERE id = $1`
	return scanDeal(r.db.QueryRowContext(ctx, query, id))
}

func (r *BoardRepository) ListHistory(ctx context.Context, dealID int) ([]*models.HistoryEntry, error) {
	const query = `
		SELECT id, deal_id, from_stage_id, to_stage_id, moved_by_user_id, COALESCE(reason, ''), created_at
		FROM deal_history
		WHERE deal_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var from sql.NullInt64
		if err := rows.Scan(&e.ID, &e.DealID, &from, &e.ToStageID, &e.MovedByID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if from.Valid {
			v := int(from.Int64)
			e.FromStageID = &v
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
