package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolcrm/internal/models"
	"schoolcrm/internal/repositories/inmem"
	"schoolcrm/internal/services"
)

type env struct {
	db          *inmem.DB
	registry    *services.RegistryService
	transitions *services.TransitionService
	board       *services.BoardService
	store       services.TransitionStore

	sales   *models.Pipeline
	stages  map[string]*models.Stage
	members *models.Pipeline
	active  *models.Stage
	contact *models.ContactProfile
}

const actorID = 7

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	db := inmem.Open()
	registry := services.NewRegistryService(inmem.NewPipelineRepository(db), inmem.NewStageRepository(db))

	sales, err := registry.CreatePipeline(ctx, "Sales", "trial lessons and negotiations")
	require.NoError(t, err)
	stages := make(map[string]*models.Stage)
	for _, name := range []string{"New", "Negotiating", "Won", "Lost"} {
		st, err := registry.CreateStage(ctx, sales.ID, name, "", "")
		require.NoError(t, err)
		stages[name] = st
	}

	members, err := registry.CreatePipeline(ctx, "Active Members", "")
	require.NoError(t, err)
	active, err := registry.CreateStage(ctx, members.ID, "Active", "", "")
	require.NoError(t, err)

	contact := db.SeedContact(&models.ContactProfile{
		Name:        "Aigerim Bekova",
		Phone:       "+77010000000",
		Role:        models.ContactRoleLead,
		LeadStatus:  models.LeadStatusActive,
		Temperature: models.TemperatureWarm,
	})

	store := inmem.NewTransitionStore(db)
	transitions := services.NewTransitionService(store, services.EnrollmentConfig{
		PipelineID: members.ID,
		StageID:    active.ID,
	}, nil)
	board := services.NewBoardService(inmem.NewBoardRepository(db))

	return &env{
		db:          db,
		registry:    registry,
		transitions: transitions,
		board:       board,
		store:       store,
		sales:       sales,
		stages:      stages,
		members:     members,
		active:      active,
		contact:     contact,
	}
}

func (e *env) createDeal(t *testing.T, value float64) *models.Deal {
	t.Helper()
	deal, err := e.transitions.CreateDeal(context.Background(), e.contact.ID, e.sales.ID, e.stages["New"].ID, value, actorID)
	require.NoError(t, err)
	return deal
}

func TestCreateDeal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	deal := e.createDeal(t, 500)
	assert.Equal(t, models.DealStatusActive, deal.Status)
	assert.Equal(t, e.stages["New"].ID, deal.StageID)

	entries, err := e.board.GetHistory(ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].FromStageID)
	assert.Equal(t, e.stages["New"].ID, entries[0].ToStageID)
	assert.Equal(t, actorID, entries[0].MovedByID)

	contact := e.db.GetContact(e.contact.ID)
	assert.Equal(t, e.sales.ID, contact.CurrentPipelineID)
	assert.Equal(t, e.stages["New"].ID, contact.CurrentStageID)
}

func TestCreateDealValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.transitions.CreateDeal(ctx, e.contact.ID, e.sales.ID, e.stages["New"].ID, -1, actorID)
	assert.ErrorIs(t, err, services.ErrNegativeValue)

	_, err = e.transitions.CreateDeal(ctx, e.contact.ID, e.sales.ID, e.active.ID, 100, actorID)
	assert.ErrorIs(t, err, services.ErrCrossPipelineMove)

	_, err = e.transitions.CreateDeal(ctx, 9999, e.sales.ID, e.stages["New"].ID, 100, actorID)
	assert.ErrorIs(t, err, services.ErrContactNotFound)
}

// The full spec scenario: New -> Negotiating -> (Lost without reason fails)
// -> Lost -> back to Negotiating.
func TestMoveDealScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deal := e.createDeal(t, 500)

	moved, err := e.transitions.MoveDeal(ctx, deal.ID, e.stages["Negotiating"].ID, actorID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusActive, moved.Status)
	entries, _ := e.board.GetHistory(ctx, deal.ID)
	assert.Len(t, entries, 2)

	_, err = e.transitions.MoveDeal(ctx, deal.ID, e.stages["Lost"].ID, actorID, "   ")
	assert.ErrorIs(t, err, services.ErrLossReasonRequired)
	cur, err := e.board.GetDeal(ctx, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, e.stages["Negotiating"].ID, cur.StageID, "failed move must not change the stage")

	lost, err := e.transitions.MoveDeal(ctx, deal.ID, e.stages["Lost"].ID, actorID, "Price too high")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusLost, lost.Status)
	assert.Equal(t, "Price too high", lost.LossReason)
	contact := e.db.GetContact(e.contact.ID)
	assert.Equal(t, models.LeadStatusLost, contact.LeadStatus)
	require.NotNil(t, contact.LostAt)

	reopened, err := e.transitions.MoveDeal(ctx, deal.ID, e.stages["Negotiating"].ID, actorID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusActive, reopened.Status)
	assert.Empty(t, reopened.LossReason, "reactivation clears the loss reason")
	contact = e.db.GetContact(e.contact.ID)
	assert.Equal(t, models.LeadStatusActive, contact.LeadStatus)

	entries, _ = e.board.GetHistory(ctx, deal.ID)
	require.Len(t, entries, 4)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.Before(entries[i-1].CreatedAt))
		require.NotNil(t, entries[i].FromStageID)
		assert.Equal(t, entries[i-1].ToStageID, *entries[i].FromStageID)
	}
}

func TestMoveDealNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deal := e.createDeal(t, 100)

	same, err := e.transitions.MoveDeal(ctx, deal.ID, deal.StageID, actorID, "")
	require.NoError(t, err)
	assert.Equal(t, deal.StageID, same.StageID)
	assert.True(t, same.MovedAt.Equal(deal.MovedAt), "no-op must not touch moved_at")

	entries, _ := e.board.GetHistory(ctx, deal.ID)
	assert.Len(t, entries, 1, "no-op must not append history")
}

func TestMoveDealNotFound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.transitions.MoveDeal(ctx, 9999, e.stages["New"].ID, actorID, "")
	assert.ErrorIs(t, err, services.ErrDealNotFound)

	deal := e.createDeal(t, 100)
	_, err = e.transitions.MoveDeal(ctx, deal.ID, 9999, actorID, "")
	assert.ErrorIs(t, err, services.ErrStageNotFound)
}

func TestMoveDealCrossPipeline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deal := e.createDeal(t, 100)

	_, err := e.transitions.MoveDeal(ctx, deal.ID, e.active.ID, actorID, "")
	assert.ErrorIs(t, err, services.ErrCrossPipelineMove)

	cur, _ := e.board.GetDeal(ctx, deal.ID)
	assert.Equal(t, e.stages["New"].ID, cur.StageID)
	entries, _ := e.board.GetHistory(ctx, deal.ID)
	assert.Len(t, entries, 1)
}

func TestWonConversion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deal := e.createDeal(t, 750)

	won, err := e.transitions.MoveDeal(ctx, deal.ID, e.stages["Won"].ID, actorID, "")
	require.NoError(t, err)
	assert.Equal(t, models.DealStatusWon, won.Status)

	contact := e.db.GetContact(e.contact.ID)
	assert.Equal(t, models.ContactRoleMember, contact.Role)
	assert.Equal(t, models.LeadStatusConverted, contact.LeadStatus)
	require.NotNil(t, contact.ConvertedAt)

	// the mirror deal lands in Active Members and takes over the pointers
	board, err := e.board.GetBoard(ctx, e.members.ID)
	require.NoError(t, err)
	require.Len(t, board.Columns, 1)
	require.Len(t, board.Columns[0].Deals, 1)
	mirror := board.Columns[0].Deals[0]
	assert.Equal(t, 750.0, mirror.Value)
	assert.Equal(t, actorID, mirror.ResponsibleID)
	assert.Equal(t, models.DealStatusActive, mirror.Status)
	assert.Equal(t, e.members.ID, contact.CurrentPipelineID)
	assert.Equal(t, e.active.ID, contact.CurrentStageID)

	entries, err := e.board.GetHistory(ctx, mirror.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].FromStageID)
	assert.Equal(t, services.EnrollmentReason, entries[0].Reason)
}

func TestWonTwiceEnrollsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deal := e.createDeal(t, 300)

	_, err := e.transitions.MoveDeal(ctx, deal.ID, e.stages["Won"].ID, actorID, "")
	require.NoError(t, err)
	first := e.db.GetContact(e.contact.ID).ConvertedAt
	require.NotNil(t, first)

	_, err = e.transitions.MoveDeal(ctx, deal.ID, e.stages["Negotiating"].ID, actorID, "")
	require.NoError(t, err)
	_, err = e.transitions.MoveDeal(ctx, deal.ID, e.stages["Won"].ID, actorID, "")
	require.NoError(t, err)

	contact := e.db.GetContact(e.contact.ID)
	require.NotNil(t, contact.ConvertedAt)
	assert.True(t, contact.ConvertedAt.Equal(*first), "converted_at must never move")

	board, err := e.board.GetBoard(ctx, e.members.ID)
	require.NoError(t, err)
	assert.Len(t, board.Columns[0].Deals, 1, "repeated Won transitions must not enroll twice")
}

func TestEnrollmentDisabled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deal := e.createDeal(t, 300)

	svc := services.NewTransitionService(e.store, services.EnrollmentConfig{}, nil)
	won, err := svc.MoveDeal(ctx, deal.ID, e.stages["Won"].ID, actorID, "")
	require.NoError(t, err, "a missing enrollment target must not fail the transition")
	assert.Equal(t, models.DealStatusWon, won.Status)

	board, err := e.board.GetBoard(ctx, e.members.ID)
	require.NoError(t, err)
	assert.Empty(t, board.Columns[0].Deals)
}

// staleStore serves a deal snapshot from before another actor's committed
// move, forcing the optimistic check to fire at commit time.
type staleStore struct {
	services.TransitionStore
	stale *models.Deal
}

func (s *staleStore) GetDeal(_ context.Context, _ int) (*models.Deal, error) {
	cp := *s.stale
	return &cp, nil
}

func TestConcurrentModification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deal := e.createDeal(t, 100)

	stale := *deal // still at New
	_, err := e.transitions.MoveDeal(ctx, deal.ID, e.stages["Negotiating"].ID, actorID, "")
	require.NoError(t, err)

	racing := services.NewTransitionService(&staleStore{TransitionStore: e.store, stale: &stale}, services.EnrollmentConfig{}, nil)
	_, err = racing.MoveDeal(ctx, deal.ID, e.stages["Won"].ID, actorID+1, "")
	assert.ErrorIs(t, err, services.ErrConcurrentModification)

	// the losing move must leave no trace
	cur, _ := e.board.GetDeal(ctx, deal.ID)
	assert.Equal(t, e.stages["Negotiating"].ID, cur.StageID)
	assert.Equal(t, models.DealStatusActive, cur.Status)
	entries, _ := e.board.GetHistory(ctx, deal.ID)
	assert.Len(t, entries, 2)
	contact := e.db.GetContact(e.contact.ID)
	assert.Equal(t, models.ContactRoleLead, contact.Role)
}

type recordingNotifier struct {
	changed []int
}

func (n *recordingNotifier) BoardChanged(pipelineID int) {
	n.changed = append(n.changed, pipelineID)
}

func TestWonNotifiesBothBoards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	deal := e.createDeal(t, 100)

	notifier := &recordingNotifier{}
	svc := services.NewTransitionService(e.store, services.EnrollmentConfig{
		PipelineID: e.members.ID,
		StageID:    e.active.ID,
	}, notifier)

	_, err := svc.MoveDeal(ctx, deal.ID, e.stages["Won"].ID, actorID, "")
	require.NoError(t, err)
	assert.Equal(t, []int{e.sales.ID, e.members.ID}, notifier.changed)
}
