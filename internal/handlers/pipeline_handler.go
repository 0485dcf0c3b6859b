package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolcrm/internal/authz"
	"schoolcrm/internal/models"
	"schoolcrm/internal/services"
)

type PipelineHandler struct {
	Registry *services.RegistryService
	Board    *services.BoardService
}

func NewPipelineHandler(registry *services.RegistryService, board *services.BoardService) *PipelineHandler {
	return &PipelineHandler{Registry: registry, Board: board}
}

type createPipelineRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// @Summary      Create a pipeline
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        pipeline  body      createPipelineRequest  true  "Pipeline"
// @Success      201       {object}  models.Pipeline
// @Failure      409       {object}  map[string]string
// @Router       /pipelines [post]
func (h *PipelineHandler) Create(c *gin.Context) {
	_, roleID := getUserAndRole(c)
	if !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	var req createPipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.Registry.CreatePipeline(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary      List pipelines
// @Tags         Pipelines
// @Produce      json
// @Success      200  {array}  models.Pipeline
// @Router       /pipelines [get]
func (h *PipelineHandler) List(c *gin.Context) {
	pipelines, err := h.Registry.ListPipelines(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pipelines)
}

type createStageRequest struct {
	Name  string           `json:"name" binding:"required"`
	Color string           `json:"color"`
	Kind  models.StageKind `json:"kind"`
}

// @Summary      Add a stage to a pipeline
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        id     path      int                 true  "Pipeline id"
// @Param        stage  body      createStageRequest  true  "Stage"
// @Success      201    {object}  models.Stage
// @Failure      404    {object}  map[string]string
// @Router       /pipelines/{id}/stages [post]
func (h *PipelineHandler) CreateStage(c *gin.Context) {
	_, roleID := getUserAndRole(c)
	if !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	pipelineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req createStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.Registry.CreateStage(c.Request.Context(), pipelineID, req.Name, req.Color, req.Kind)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

type reorderStagesRequest struct {
	StageIDs []int `json:"stage_ids" binding:"required"`
}

// @Summary      Reorder the stages of a pipeline
// @Description  stage_ids must list every stage of the pipeline in the new order
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        id     path      int                   true  "Pipeline id"
// @Param        order  body      reorderStagesRequest  true  "New order"
// @Success      200    {array}   models.Stage
// @Failure      400    {object}  map[string]string
// @Router       /pipelines/{id}/stages/reorder [put]
func (h *PipelineHandler) ReorderStages(c *gin.Context) {
	_, roleID := getUserAndRole(c)
	if !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	pipelineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reorderStagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stages, err := h.Registry.ReorderStages(c.Request.Context(), pipelineID, req.StageIDs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stages)
}

type updateStageRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// @Summary      Rename or recolor a stage
// @Description  The stage kind never changes on rename
// @Tags         Pipelines
// @Accept       json
// @Produce      json
// @Param        id     path      int                 true  "Stage id"
// @Param        stage  body      updateStageRequest  true  "Changes"
// @Success      200    {object}  models.Stage
// @Failure      404    {object}  map[string]string
// @Router       /stages/{id} [put]
func (h *PipelineHandler) UpdateStage(c *gin.Context) {
	_, roleID := getUserAndRole(c)
	if !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	stageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st, err := h.Registry.UpdateStage(c.Request.Context(), stageID, req.Name, req.Color)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Deactivate a pipeline
// @Tags         Pipelines
// @Produce      json
// @Param        id  path  int  true  "Pipeline id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /pipelines/{id}/deactivate [post]
func (h *PipelineHandler) Deactivate(c *gin.Context) {
	_, roleID := getUserAndRole(c)
	if !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	pipelineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Registry.DeactivatePipeline(c.Request.Context(), pipelineID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Get the Kanban board of a pipeline
// @Tags         Board
// @Produce      json
// @Param        id  path      int  true  "Pipeline id"
// @Success      200  {object}  models.Board
// @Failure      404  {object}  map[string]string
// @Router       /pipelines/{id}/board [get]
func (h *PipelineHandler) GetBoard(c *gin.Context) {
	pipelineID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	board, err := h.Board.GetBoard(c.Request.Context(), pipelineID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}
