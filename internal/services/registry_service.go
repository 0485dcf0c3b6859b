package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"schoolcrm/internal/models"
)

// PipelineStore is the persistence surface the registry needs for pipelines.
type PipelineStore interface {
	Create(ctx context.Context, p *models.Pipeline) (int, error)
	GetByID(ctx context.Context, id int) (*models.Pipeline, error)
	GetByName(ctx context.Context, name string) (*models.Pipeline, error)
	List(ctx context.Context) ([]*models.Pipeline, error)
	Deactivate(ctx context.Context, id int) error
}

// StageStore is the persistence surface the registry needs for stages.
type StageStore interface {
	Create(ctx context.Context, st *models.Stage) (int, error)
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	ListByPipeline(ctx context.Context, pipelineID int) ([]*models.Stage, error)
	Update(ctx context.Context, st *models.Stage) error
	// UpdateOrders rewrites sort_order for every listed stage atomically.
	UpdateOrders(ctx context.Context, pipelineID int, orders map[int]int) error
}

type RegistryService struct {
	Pipelines PipelineStore
	Stages    StageStore
}

func NewRegistryService(pipelines PipelineStore, stages StageStore) *RegistryService {
	return &RegistryService{Pipelines: pipelines, Stages: stages}
}

func (s *RegistryService) CreatePipeline(ctx context.Context, name, description string) (*models.Pipeline, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("pipeline name must not be empty")
	}
	existing, err := s.Pipelines.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicatePipelineName
	}
	p := &models.Pipeline{
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	id, err := s.Pipelines.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return p, nil
}

// CreateStage appends a stage at the right edge of the board. The kind is
// derived from the name ("Won"/"Lost") unless an explicit kind is given.
func (s *RegistryService) CreateStage(ctx context.Context, pipelineID int, name, color string, kind models.StageKind) (*models.Stage, error) {
	p, err := s.Pipelines.GetByID(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPipelineNotFound
	}
	stages, err := s.Stages.ListByPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	maxOrder := 0
	for _, st := range stages {
		if st.SortOrder > maxOrder {
			maxOrder = st.SortOrder
		}
	}
	if kind == "" {
		kind = models.KindForStageName(name)
	}
	st := &models.Stage{
		PipelineID: pipelineID,
		Name:       name,
		Color:      color,
		SortOrder:  maxOrder + 1,
		Kind:       kind,
	}
	id, err := s.Stages.Create(ctx, st)
	if err != nil {
		return nil, err
	}
	st.ID = id
	return st, nil
}

// UpdateStage renames/recolors a stage. The kind is deliberately left
// untouched: renaming a column must not change business semantics.
func (s *RegistryService) UpdateStage(ctx context.Context, stageID int, name, color string) (*models.Stage, error) {
	st, err := s.Stages.GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStageNotFound
	}
	if name != "" {
		st.Name = name
	}
	if color != "" {
		st.Color = color
	}
	if err := s.Stages.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// ReorderStages renumbers the pipeline's stages 1..N following orderedIDs,
// which must be a permutation of the pipeline's current stage ids.
func (s *RegistryService) ReorderStages(ctx context.Context, pipelineID int, orderedIDs []int) ([]*models.Stage, error) {
	stages, err := s.Stages.ListByPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		p, err := s.Pipelines.GetByID(ctx, pipelineID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrPipelineNotFound
		}
	}
	if len(orderedIDs) != len(stages) {
		return nil, ErrStageOrderMismatch
	}
	byID := make(map[int]*models.Stage, len(stages))
	for _, st := range stages {
		byID[st.ID] = st
	}
	orders := make(map[int]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, ok := byID[id]; !ok {
			return nil, ErrStageOrderMismatch
		}
		if _, dup := orders[id]; dup {
			return nil, ErrStageOrderMismatch
		}
		orders[id] = i + 1
	}
	if err := s.Stages.UpdateOrders(ctx, pipelineID, orders); err != nil {
		return nil, err
	}
	return s.ListStages(ctx, pipelineID)
}

func (s *RegistryService) ListPipelines(ctx context.Context) ([]*models.Pipeline, error) {
	return s.Pipelines.List(ctx)
}

func (s *RegistryService) ListStages(ctx context.Context, pipelineID int) ([]*models.Stage, error) {
	return s.Stages.ListByPipeline(ctx, pipelineID)
}

// DeactivatePipeline is the only way to retire a pipeline; hard deletes do
// not exist in this core.
func (s *RegistryService) DeactivatePipeline(ctx context.Context, id int) error {
	p, err := s.Pipelines.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrPipelineNotFound
	}
	return s.Pipelines.Deactivate(ctx, id)
}
