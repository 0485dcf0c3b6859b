package models

import "time"

type DealStatus string

const (
	DealStatusActive DealStatus = "active"
	DealStatusWon    DealStatus = "won"
	DealStatusLost   DealStatus = "lost"
)

// Deal is a negotiation in progress, located at exactly one stage of one
// pipeline. LossReason is non-empty iff Status is lost.
type Deal struct {
	ID               int        `json:"id"`
	ContactProfileID int        `json:"contact_profile_id"`
	PipelineID       int        `json:"pipeline_id"`
	StageID          int        `json:"stage_id"`
	Value            float64    `json:"value"`
	Status           DealStatus `json:"status"`
	LossReason       string     `json:"loss_reason,omitempty"`
	ResponsibleID    int        `json:"responsible_user_id"`
	MovedAt          time.Time  `json:"moved_at"`
	CreatedAt        time.Time  `json:"created_at"`
}
