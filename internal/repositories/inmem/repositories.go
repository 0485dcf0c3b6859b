package inmem

import (
	"context"
	"sort"

	"schoolcrm/internal/models"
)

type PipelineRepository struct {
	db *DB
}

func NewPipelineRepository(db *DB) *PipelineRepository {
	return &PipelineRepository{db: db}
}

func (r *PipelineRepository) Create(_ context.Context, p *models.Pipeline) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id := r.db.nextID()
	cp := *p
	cp.ID = id
	r.db.pipelines[id] = &cp
	return id, nil
}

func (r *PipelineRepository) GetByID(_ context.Context, id int) (*models.Pipeline, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	p := r.db.pipelines[id]
	if p == nil {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *PipelineRepository) GetByName(_ context.Context, name string) (*models.Pipeline, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.pipelines {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *PipelineRepository) List(_ context.Context) ([]*models.Pipeline, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*models.Pipeline, 0, len(r.db.pipelines))
	for _, p := range r.db.pipelines {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PipelineRepository) Deactivate(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p := r.db.pipelines[id]; p != nil {
		p.Active = false
	}
	return nil
}

type StageRepository struct {
	db *DB
}

func NewStageRepository(db *DB) *StageRepository {
	return &StageRepository{db: db}
}

func (r *StageRepository) Create(_ context.Context, st *models.Stage) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id := r.db.nextID()
	cp := *st
	cp.ID = id
	r.db.stages[id] = &cp
	return id, nil
}

func (r *StageRepository) GetByID(_ context.Context, id int) (*models.Stage, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	st := r.db.stages[id]
	if st == nil {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (r *StageRepository) ListByPipeline(_ context.Context, pipelineID int) ([]*models.Stage, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.listStagesLocked(pipelineID), nil
}

func (db *DB) listStagesLocked(pipelineID int) []*models.Stage {
	var out []*models.Stage
	for _, st := range db.stages {
		if st.PipelineID == pipelineID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func (r *StageRepository) Update(_ context.Context, st *models.Stage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur := r.db.stages[st.ID]
	if cur == nil {
		return nil
	}
	cur.Name = st.Name
	cur.Color = st.Color
	return nil
}

func (r *StageRepository) UpdateOrders(_ context.Context, pipelineID int, orders map[int]int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, order := range orders {
		if st := r.db.stages[id]; st != nil && st.PipelineID == pipelineID {
			st.SortOrder = order
		}
	}
	return nil
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(_ context.Context, u *models.User) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id := r.db.nextID()
	cp := *u
	cp.ID = id
	r.db.users[id] = &cp
	return id, nil
}

func (r *UserRepository) GetByID(_ context.Context, id int) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	u := r.db.users[id]
	if u == nil {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type BoardRepository struct {
	db *DB
}

func NewBoardRepository(db *DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) GetPipeline(ctx context.Context, id int) (*models.Pipeline, error) {
	return NewPipelineRepository(r.db).GetByID(ctx, id)
}

func (r *BoardRepository) ListStages(ctx context.Context, pipelineID int) ([]*models.Stage, error) {
	return NewStageRepository(r.db).ListByPipeline(ctx, pipelineID)
}

func (r *BoardRepository) ListDealCards(_ context.Context, pipelineID int) ([]*models.DealCard, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*models.DealCard
	for _, d := range r.db.deals {
		if d.PipelineID != pipelineID {
			continue
		}
		card := &models.DealCard{Deal: *d}
		if c := r.db.contacts[d.ContactProfileID]; c != nil {
			card.ContactName = c.Name
			card.ContactPhone = c.Phone
			card.Temperature = c.Temperature
		}
		if u := r.db.users[d.ResponsibleID]; u != nil {
			card.ResponsibleName = u.Name
		}
		if msgs := r.db.messages[d.ContactProfileID]; len(msgs) > 0 {
			last := msgs[0]
			for _, m := range msgs[1:] {
				if m.SentAt.After(last.SentAt) {
					last = m
				}
			}
			cp := *last
			card.LastMessage = &cp
		}
		out = append(out, card)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MovedAt.Equal(out[j].MovedAt) {
			return out[i].MovedAt.After(out[j].MovedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *BoardRepository) GetDeal(_ context.Context, id int) (*models.Deal, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	d := r.db.deals[id]
	if d == nil {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *BoardRepository) ListHistory(_ context.Context, dealID int) ([]*models.HistoryEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*models.HistoryEntry
	for _, e := range r.db.history {
		if e.DealID == dealID {
			out = append(out, cloneEntry(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
