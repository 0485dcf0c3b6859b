package models

import "time"

// StageKind drives terminal transition semantics. The kind is fixed at
// creation time; renaming a stage never changes it.
type StageKind string

const (
	StageKindNormal StageKind = "normal"
	StageKindWon    StageKind = "won"
	StageKindLost   StageKind = "lost"
)

// Reserved stage names. Creating a stage with one of these names (exact,
// case-sensitive) gives it the matching terminal kind unless an explicit
// kind is supplied.
const (
	StageNameWon  = "Won"
	StageNameLost = "Lost"
)

func KindForStageName(name string) StageKind {
	switch name {
	case StageNameWon:
		return StageKindWon
	case StageNameLost:
		return StageKindLost
	}
	return StageKindNormal
}

type Pipeline struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stage is one ordered column of a pipeline. SortOrder values within a
// pipeline are contiguous starting at 1.
type Stage struct {
	ID         int       `json:"id"`
	PipelineID int       `json:"pipeline_id"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	SortOrder  int       `json:"sort_order"`
	Kind       StageKind `json:"kind"`
}
