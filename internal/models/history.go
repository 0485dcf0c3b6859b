package models

import "time"

// HistoryEntry is one immutable audit record of a deal transition.
// FromStageID is nil for the entry written at deal creation.
type HistoryEntry struct {
	ID          int       `json:"id"`
	DealID      int       `json:"deal_id"`
	FromStageID *int      `json:"from_stage_id,omitempty"`
	ToStageID   int       `json:"to_stage_id"`
	MovedByID   int       `json:"moved_by_user_id"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
