package routes

import (
	"github.com/gin-gonic/gin"

	"schoolcrm/internal/handlers"
	"schoolcrm/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	pipelineHandler *handlers.PipelineHandler,
	dealHandler *handlers.DealHandler,
	boardWSHandler *handlers.BoardWSHandler,
) *gin.Engine {

	// ---- public
	r.POST("/login", authHandler.Login)
	r.POST("/register", authHandler.Register)

	// ---- protected
	r.Use(middleware.AuthMiddleware())
	r.Use(middleware.ReadOnlyGuard())

	// PIPELINES
	pipelines := r.Group("/pipelines")
	{
		pipelines.POST("/", pipelineHandler.Create)
		pipelines.GET("/", pipelineHandler.List)
		pipelines.POST("/:id/stages", pipelineHandler.CreateStage)
		pipelines.PUT("/:id/stages/reorder", pipelineHandler.ReorderStages)
		pipelines.POST("/:id/deactivate", pipelineHandler.Deactivate)
		pipelines.GET("/:id/board", pipelineHandler.GetBoard)
	}

	// STAGES
	r.PUT("/stages/:id", pipelineHandler.UpdateStage)

	// DEALS
	deals := r.Group("/deals")
	{
		deals.POST("/", dealHandler.Create)
		deals.GET("/:id", dealHandler.GetByID)
		deals.POST("/:id/move", dealHandler.Move)
		deals.GET("/:id/history", dealHandler.History)
	}

	// board refresh channel
	r.GET("/ws/board/:pipeline_id", boardWSHandler.Subscribe)

	return r
}
