package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolcrm/internal/authz"
	"schoolcrm/internal/models"
	"schoolcrm/internal/services"
)

type DealHandler struct {
	Transitions *services.TransitionService
	Board       *services.BoardService
}

func NewDealHandler(transitions *services.TransitionService, board *services.BoardService) *DealHandler {
	return &DealHandler{Transitions: transitions, Board: board}
}

type createDealRequest struct {
	ContactProfileID int     `json:"contact_profile_id" binding:"required"`
	PipelineID       int     `json:"pipeline_id" binding:"required"`
	StageID          int     `json:"stage_id" binding:"required"`
	Value            float64 `json:"value"`
}

// @Summary      Create a deal
// @Description  Opens a deal at the given stage and writes its first history entry
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        deal  body      createDealRequest  true  "Deal"
// @Success      201   {object}  models.Deal
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /deals [post]
func (h *DealHandler) Create(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	if authz.IsReadOnly(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		return
	}
	var req createDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deal, err := h.Transitions.CreateDeal(c.Request.Context(), req.ContactProfileID, req.PipelineID, req.StageID, req.Value, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deal)
}

type moveDealRequest struct {
	TargetStageID int    `json:"target_stage_id" binding:"required"`
	Reason        string `json:"reason"`
}

// @Summary      Move a deal to another stage
// @Description  Validates the transition and applies won/lost side effects atomically. A move into a lost stage requires a reason. Returns 409 when another user moved the deal first; refetch and retry.
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        id    path      int              true  "Deal id"
// @Param        move  body      moveDealRequest  true  "Target stage"
// @Success      200   {object}  models.Deal
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /deals/{id}/move [post]
func (h *DealHandler) Move(c *gin.Context) {
	userID, roleID := getUserAndRole(c)
	if authz.IsReadOnly(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "read-only role"})
		return
	}
	dealID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req moveDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deal, err := h.Transitions.MoveDeal(c.Request.Context(), dealID, req.TargetStageID, userID, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// @Summary      Get a deal
// @Tags         Deals
// @Produce      json
// @Param        id  path      int  true  "Deal id"
// @Success      200  {object}  models.Deal
// @Failure      404  {object}  map[string]string
// @Router       /deals/{id} [get]
func (h *DealHandler) GetByID(c *gin.Context) {
	dealID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	deal, err := h.Board.GetDeal(c.Request.Context(), dealID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// @Summary      Get the transition history of a deal
// @Tags         Deals
// @Produce      json
// @Param        id  path      int  true  "Deal id"
// @Success      200  {array}   models.HistoryEntry
// @Failure      404  {object}  map[string]string
// @Router       /deals/{id}/history [get]
func (h *DealHandler) History(c *gin.Context) {
	dealID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.Board.GetHistory(c.Request.Context(), dealID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
