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

func newRegistry(t *testing.T) *services.RegistryService {
	t.Helper()
	db := inmem.Open()
	return services.NewRegistryService(inmem.NewPipelineRepository(db), inmem.NewStageRepository(db))
}

func TestCreatePipeline(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()

	p, err := svc.CreatePipeline(ctx, "  Sales  ", "trial funnel")
	require.NoError(t, err)
	assert.Equal(t, "Sales", p.Name)
	assert.True(t, p.Active)

	_, err = svc.CreatePipeline(ctx, "Sales", "")
	assert.ErrorIs(t, err, services.ErrDuplicatePipelineName)

	_, err = svc.CreatePipeline(ctx, "   ", "")
	assert.Error(t, err)
}

func TestCreateStageOrderAndKind(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()
	p, err := svc.CreatePipeline(ctx, "Sales", "")
	require.NoError(t, err)

	first, err := svc.CreateStage(ctx, p.ID, "New", "#fff", "")
	require.NoError(t, err)
	assert.Equal(t, 1, first.SortOrder)
	assert.Equal(t, models.StageKindNormal, first.Kind)

	won, err := svc.CreateStage(ctx, p.ID, "Won", "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, won.SortOrder)
	assert.Equal(t, models.StageKindWon, won.Kind, "a stage named Won is terminal")

	lost, err := svc.CreateStage(ctx, p.ID, "Lost", "", "")
	require.NoError(t, err)
	assert.Equal(t, models.StageKindLost, lost.Kind)

	// an explicit kind beats the name heuristic
	custom, err := svc.CreateStage(ctx, p.ID, "Signed up", "", models.StageKindWon)
	require.NoError(t, err)
	assert.Equal(t, models.StageKindWon, custom.Kind)

	_, err = svc.CreateStage(ctx, 9999, "Orphan", "", "")
	assert.ErrorIs(t, err, services.ErrPipelineNotFound)
}

func TestRenameKeepsKind(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()
	p, _ := svc.CreatePipeline(ctx, "Sales", "")
	won, err := svc.CreateStage(ctx, p.ID, "Won", "", "")
	require.NoError(t, err)

	renamed, err := svc.UpdateStage(ctx, won.ID, "Closed (signed)", "#0a0")
	require.NoError(t, err)
	assert.Equal(t, "Closed (signed)", renamed.Name)
	assert.Equal(t, models.StageKindWon, renamed.Kind, "renaming must not change stage semantics")

	_, err = svc.UpdateStage(ctx, 9999, "x", "")
	assert.ErrorIs(t, err, services.ErrStageNotFound)
}

func TestReorderStages(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()
	p, _ := svc.CreatePipeline(ctx, "Sales", "")
	a, _ := svc.CreateStage(ctx, p.ID, "A", "", "")
	b, _ := svc.CreateStage(ctx, p.ID, "B", "", "")
	c, _ := svc.CreateStage(ctx, p.ID, "C", "", "")

	stages, err := svc.ReorderStages(ctx, p.ID, []int{c.ID, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, []int{c.ID, a.ID, b.ID}, []int{stages[0].ID, stages[1].ID, stages[2].ID})
	for i, st := range stages {
		assert.Equal(t, i+1, st.SortOrder)
	}

	_, err = svc.ReorderStages(ctx, p.ID, []int{a.ID, b.ID})
	assert.ErrorIs(t, err, services.ErrStageOrderMismatch, "missing a stage")

	_, err = svc.ReorderStages(ctx, p.ID, []int{a.ID, b.ID, 9999})
	assert.ErrorIs(t, err, services.ErrStageOrderMismatch, "foreign stage id")

	_, err = svc.ReorderStages(ctx, p.ID, []int{a.ID, a.ID, b.ID})
	assert.ErrorIs(t, err, services.ErrStageOrderMismatch, "duplicated stage id")

	_, err = svc.ReorderStages(ctx, 9999, nil)
	assert.ErrorIs(t, err, services.ErrPipelineNotFound)
}

func TestDeactivatePipeline(t *testing.T) {
	svc := newRegistry(t)
	ctx := context.Background()
	p, _ := svc.CreatePipeline(ctx, "Sales", "")

	require.NoError(t, svc.DeactivatePipeline(ctx, p.ID))
	list, err := svc.ListPipelines(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Active)

	assert.ErrorIs(t, svc.DeactivatePipeline(ctx, 9999), services.ErrPipelineNotFound)
}
