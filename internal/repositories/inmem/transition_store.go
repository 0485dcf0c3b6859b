package inmem

import (
	"context"
	"sort"

	"schoolcrm/internal/models"
	"schoolcrm/internal/services"
)

// TransitionStore emulates the Postgres unit of work: InTx holds the write
// lock for the whole callback and restores a snapshot when it fails, so a
// reader never observes a half-applied transition.
type TransitionStore struct {
	db *DB
}

func NewTransitionStore(db *DB) *TransitionStore {
	return &TransitionStore{db: db}
}

func (s *TransitionStore) GetDeal(_ context.Context, id int) (*models.Deal, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	d := s.db.deals[id]
	if d == nil {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *TransitionStore) GetStage(_ context.Context, id int) (*models.Stage, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	st := s.db.stages[id]
	if st == nil {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (s *TransitionStore) InTx(_ context.Context, fn func(tx services.TransitionTx) error) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	snap := s.db.snapshotLocked()
	if err := fn(&transitionTx{db: s.db}); err != nil {
		s.db.restoreLocked(snap)
		return err
	}
	return nil
}

// transitionTx methods run with db.mu already held by InTx.
type transitionTx struct {
	db *DB
}

func (t *transitionTx) UpdateDealStage(_ context.Context, deal *models.Deal, expectedStageID int) error {
	cur := t.db.deals[deal.ID]
	if cur == nil {
		return services.ErrDealNotFound
	}
	if cur.StageID != expectedStageID {
		return services.ErrConcurrentModification
	}
	cp := *deal
	t.db.deals[deal.ID] = &cp
	return nil
}

func (t *transitionTx) CreateDeal(_ context.Context, deal *models.Deal) (int, error) {
	id := t.db.nextID()
	cp := *deal
	cp.ID = id
	t.db.deals[id] = &cp
	return id, nil
}

func (t *transitionTx) AppendHistory(_ context.Context, e *models.HistoryEntry) error {
	cp := cloneEntry(e)
	cp.ID = t.db.nextID()
	t.db.history = append(t.db.history, cp)
	return nil
}

func (t *transitionTx) GetContact(_ context.Context, id int) (*models.ContactProfile, error) {
	c := t.db.contacts[id]
	if c == nil {
		return nil, nil
	}
	return cloneContact(c), nil
}

func (t *transitionTx) UpdateContactLeadState(_ context.Context, c *models.ContactProfile) error {
	if t.db.contacts[c.ID] == nil {
		return nil
	}
	t.db.contacts[c.ID] = cloneContact(c)
	return nil
}

func (t *transitionTx) FindActiveDeal(_ context.Context, contactID, pipelineID int) (*models.Deal, error) {
	var found []*models.Deal
	for _, d := range t.db.deals {
		if d.ContactProfileID == contactID && d.PipelineID == pipelineID && d.Status == models.DealStatusActive {
			found = append(found, d)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	cp := *found[0]
	return &cp, nil
}
