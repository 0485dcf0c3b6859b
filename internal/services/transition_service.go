package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"schoolcrm/internal/models"
)

// EnrollmentReason is recorded on the history entry of the mirror deal that
// auto-enrollment creates in the Active Members pipeline.
const EnrollmentReason = "automatic conversion"

// TransitionStore is the storage surface of the transition engine. InTx runs
// fn inside one atomic unit of work: every write made through the TransitionTx
// becomes visible together on commit or not at all.
type TransitionStore interface {
	GetDeal(ctx context.Context, id int) (*models.Deal, error)
	GetStage(ctx context.Context, id int) (*models.Stage, error)
	InTx(ctx context.Context, fn func(tx TransitionTx) error) error
}

type TransitionTx interface {
	// UpdateDealStage writes stage/status/loss_reason/moved_at, but only if
	// the deal is still at expectedStageID. Returns ErrConcurrentModification
	// when another actor moved the deal first.
	UpdateDealStage(ctx context.Context, deal *models.Deal, expectedStageID int) error
	CreateDeal(ctx context.Context, deal *models.Deal) (int, error)
	AppendHistory(ctx context.Context, entry *models.HistoryEntry) error
	GetContact(ctx context.Context, id int) (*models.ContactProfile, error)
	UpdateContactLeadState(ctx context.Context, contact *models.ContactProfile) error
	// FindActiveDeal returns the contact's most recent active deal in the
	// given pipeline, or nil.
	FindActiveDeal(ctx context.Context, contactID, pipelineID int) (*models.Deal, error)
}

// EnrollmentConfig carries the ids of the fixed "Active Members" pipeline and
// its entry stage, resolved once at startup. Zero ids disable enrollment.
type EnrollmentConfig struct {
	PipelineID int
	StageID    int
}

func (c EnrollmentConfig) Enabled() bool {
	return c.PipelineID != 0 && c.StageID != 0
}

// BoardNotifier resynchronizes connected viewers after a committed change.
// Implementations must be non-blocking; notifications carry no diff, clients
// re-fetch the whole board.
type BoardNotifier interface {
	BoardChanged(pipelineID int)
}

type TransitionService struct {
	Store    TransitionStore
	Enroll   EnrollmentConfig
	Notifier BoardNotifier
}

func NewTransitionService(store TransitionStore, enroll EnrollmentConfig, notifier BoardNotifier) *TransitionService {
	return &TransitionService{Store: store, Enroll: enroll, Notifier: notifier}
}

// CreateDeal opens a deal at the given stage and writes its initial history
// entry (from_stage_id null) in the same unit of work.
func (s *TransitionService) CreateDeal(ctx context.Context, contactProfileID, pipelineID, stageID int, value float64, responsibleID int) (*models.Deal, error) {
	if value < 0 {
		return nil, ErrNegativeValue
	}
	stage, err := s.Store.GetStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, ErrStageNotFound
	}
	if stage.PipelineID != pipelineID {
		return nil, ErrCrossPipelineMove
	}

	now := time.Now()
	deal := &models.Deal{
		ContactProfileID: contactProfileID,
		PipelineID:       pipelineID,
		StageID:          stageID,
		Value:            value,
		Status:           models.DealStatusActive,
		ResponsibleID:    responsibleID,
		MovedAt:          now,
		CreatedAt:        now,
	}
	err = s.Store.InTx(ctx, func(tx TransitionTx) error {
		contact, err := tx.GetContact(ctx, contactProfileID)
		if err != nil {
			return err
		}
		if contact == nil {
			return fmt.Errorf("contact profile %d: %w", contactProfileID, ErrContactNotFound)
		}
		id, err := tx.CreateDeal(ctx, deal)
		if err != nil {
			return err
		}
		deal.ID = id
		if err := tx.AppendHistory(ctx, &models.HistoryEntry{
			DealID:    deal.ID,
			ToStageID: stageID,
			MovedByID: responsibleID,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		contact.CurrentPipelineID = pipelineID
		contact.CurrentStageID = stageID
		return tx.UpdateContactLeadState(ctx, contact)
	})
	if err != nil {
		return nil, err
	}
	s.notify(pipelineID)
	return deal, nil
}

// MoveDeal moves a deal to the target stage of its own pipeline, applying
// terminal semantics for won/lost stages. The deal update, history entry,
// contact mirror and auto-enrollment commit atomically; any failure leaves
// no partial state behind.
func (s *TransitionService) MoveDeal(ctx context.Context, dealID, targetStageID, actorID int, reason string) (*models.Deal, error) {
	deal, err := s.Store.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, ErrDealNotFound
	}
	target, err := s.Store.GetStage(ctx, targetStageID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrStageNotFound
	}
	if target.PipelineID != deal.PipelineID {
		return nil, ErrCrossPipelineMove
	}
	if deal.StageID == target.ID {
		// idempotent no-op: no history entry, moved_at untouched
		return deal, nil
	}
	reason = strings.TrimSpace(reason)
	if target.Kind == models.StageKindLost && reason == "" {
		return nil, ErrLossReasonRequired
	}

	now := time.Now()
	fromStageID := deal.StageID
	updated := *deal
	updated.StageID = target.ID
	updated.MovedAt = now
	switch target.Kind {
	case models.StageKindWon:
		updated.Status = models.DealStatusWon
		updated.LossReason = ""
	case models.StageKindLost:
		updated.Status = models.DealStatusLost
		updated.LossReason = reason
	default:
		// moving a lost deal back to a working stage reactivates it
		updated.Status = models.DealStatusActive
		updated.LossReason = ""
	}

	enrolled := false
	err = s.Store.InTx(ctx, func(tx TransitionTx) error {
		if err := tx.UpdateDealStage(ctx, &updated, fromStageID); err != nil {
			return err
		}
		from := fromStageID
		if err := tx.AppendHistory(ctx, &models.HistoryEntry{
			DealID:      deal.ID,
			FromStageID: &from,
			ToStageID:   target.ID,
			MovedByID:   actorID,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		contact, err := tx.GetContact(ctx, deal.ContactProfileID)
		if err != nil {
			return err
		}
		if contact == nil {
			return fmt.Errorf("contact profile %d: %w", deal.ContactProfileID, ErrContactNotFound)
		}
		contact.CurrentPipelineID = updated.PipelineID
		contact.CurrentStageID = updated.StageID
		switch updated.Status {
		case models.DealStatusWon:
			contact.Role = models.ContactRoleMember
			contact.LeadStatus = models.LeadStatusConverted
			if contact.ConvertedAt == nil {
				// first conversion wins; repeated Won moves keep the timestamp
				t := now
				contact.ConvertedAt = &t
			}
		case models.DealStatusLost:
			contact.LeadStatus = models.LeadStatusLost
			t := now
			contact.LostAt = &t
		default:
			contact.LeadStatus = models.LeadStatusActive
		}

		if updated.Status == models.DealStatusWon {
			created, err := s.autoEnroll(ctx, tx, &updated, contact, actorID, now)
			if err != nil {
				return err
			}
			enrolled = created
		}
		return tx.UpdateContactLeadState(ctx, contact)
	})
	if err != nil {
		return nil, err
	}

	s.notify(updated.PipelineID)
	if enrolled {
		s.notify(s.Enroll.PipelineID)
	}
	return &updated, nil
}

// autoEnroll creates the mirror deal in the Active Members pipeline. It is
// idempotent per contact and degrades to a no-op when the target pipeline is
// not configured; it must never fail the parent transition for that.
// The contact's current pointers are re-aimed at the mirror deal so they keep
// tracking the most recently moved active deal.
func (s *TransitionService) autoEnroll(ctx context.Context, tx TransitionTx, src *models.Deal, contact *models.ContactProfile, actorID int, now time.Time) (bool, error) {
	if !s.Enroll.Enabled() {
		log.Printf("auto-enrollment skipped: no active-members pipeline configured")
		return false, nil
	}
	existing, err := tx.FindActiveDeal(ctx, contact.ID, s.Enroll.PipelineID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	mirror := &models.Deal{
		ContactProfileID: contact.ID,
		PipelineID:       s.Enroll.PipelineID,
		StageID:          s.Enroll.StageID,
		Value:            src.Value,
		Status:           models.DealStatusActive,
		ResponsibleID:    actorID,
		MovedAt:          now,
		CreatedAt:        now,
	}
	id, err := tx.CreateDeal(ctx, mirror)
	if err != nil {
		return false, err
	}
	if err := tx.AppendHistory(ctx, &models.HistoryEntry{
		DealID:    id,
		ToStageID: s.Enroll.StageID,
		MovedByID: actorID,
		Reason:    EnrollmentReason,
		CreatedAt: now,
	}); err != nil {
		return false, err
	}
	contact.CurrentPipelineID = s.Enroll.PipelineID
	contact.CurrentStageID = s.Enroll.StageID
	return true, nil
}

func (s *TransitionService) notify(pipelineID int) {
	if s.Notifier != nil {
		s.Notifier.BoardChanged(pipelineID)
	}
}
