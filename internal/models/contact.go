package models

import "time"

type ContactRole string

const (
	ContactRoleLead   ContactRole = "lead"
	ContactRoleMember ContactRole = "member"
)

type LeadStatus string

const (
	LeadStatusActive    LeadStatus = "active"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

type Temperature string

const (
	TemperatureCold Temperature = "cold"
	TemperatureWarm Temperature = "warm"
	TemperatureHot  Temperature = "hot"
)

// ContactProfile is the canonical record for a tracked person. The profile
// itself is shared state; the lead/conversion fields below are written only
// by the transition engine. CurrentPipelineID/CurrentStageID mirror the
// location of the most recently moved active deal and are a rederivable
// cache, not a source of truth.
type ContactProfile struct {
	ID                int         `json:"id"`
	Name              string      `json:"name"`
	Phone             string      `json:"phone"`
	Role              ContactRole `json:"role"`
	LeadStatus        LeadStatus  `json:"lead_status"`
	Temperature       Temperature `json:"lead_temperature"`
	CurrentPipelineID int         `json:"current_pipeline_id"`
	CurrentStageID    int         `json:"current_stage_id"`
	ConvertedAt       *time.Time  `json:"converted_at,omitempty"`
	LostAt            *time.Time  `json:"lost_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
}
