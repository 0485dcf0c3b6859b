package services

import (
	"context"

	"schoolcrm/internal/models"
)

// BoardStore is the read-only surface backing board and history queries.
type BoardStore interface {
	GetPipeline(ctx context.Context, id int) (*models.Pipeline, error)
	ListStages(ctx context.Context, pipelineID int) ([]*models.Stage, error)
	ListDealCards(ctx context.Context, pipelineID int) ([]*models.DealCard, error)
	GetDeal(ctx context.Context, id int) (*models.Deal, error)
	ListHistory(ctx context.Context, dealID int) ([]*models.HistoryEntry, error)
}

// BoardService assembles the Kanban projection. It is a pure read side and
// must never be used to enforce invariants.
type BoardService struct {
	Store BoardStore
}

func NewBoardService(store BoardStore) *BoardService {
	return &BoardService{Store: store}
}

func (s *BoardService) GetBoard(ctx context.Context, pipelineID int) (*models.Board, error) {
	p, err := s.Store.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPipelineNotFound
	}
	stages, err := s.Store.ListStages(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	cards, err := s.Store.ListDealCards(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	byStage := make(map[int][]models.DealCard, len(stages))
	for _, c := range cards {
		byStage[c.StageID] = append(byStage[c.StageID], *c)
	}
	board := &models.Board{Pipeline: *p, Columns: make([]models.BoardColumn, 0, len(stages))}
	for _, st := range stages {
		deals := byStage[st.ID]
		if deals == nil {
			deals = []models.DealCard{}
		}
		board.Columns = append(board.Columns, models.BoardColumn{Stage: *st, Deals: deals})
	}
	return board, nil
}

func (s *BoardService) GetDeal(ctx context.Context, dealID int) (*models.Deal, error) {
	deal, err := s.Store.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, ErrDealNotFound
	}
	return deal, nil
}

func (s *BoardService) GetHistory(ctx context.Context, dealID int) ([]*models.HistoryEntry, error) {
	deal, err := s.Store.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, ErrDealNotFound
	}
	return s.Store.ListHistory(ctx, dealID)
}
