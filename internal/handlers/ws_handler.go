package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schoolcrm/internal/realtime"
)

type BoardWSHandler struct {
	Hub *realtime.BoardHub
}

func NewBoardWSHandler(hub *realtime.BoardHub) *BoardWSHandler {
	return &BoardWSHandler{Hub: hub}
}

// Subscribe upgrades the request and streams board-changed events for one
// pipeline until the client disconnects.
func (h *BoardWSHandler) Subscribe(c *gin.Context) {
	pipelineID, ok := parseIDParam(c, "pipeline_id")
	if !ok {
		return
	}
	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.Hub.Register(pipelineID, conn)
	go func() {
		defer h.Hub.Unregister(pipelineID, conn)
		_ = conn.ReadDiscard()
	}()
}
