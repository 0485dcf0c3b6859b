package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"schoolcrm/internal/config"
	"schoolcrm/internal/handlers"
	"schoolcrm/internal/realtime"
	"schoolcrm/internal/repositories"
	"schoolcrm/internal/routes"
	"schoolcrm/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"schoolcrm/internal/middleware"
	_ "schoolcrm/docs"
)

func Run() {
	cfg := config.LoadConfig()
	middleware.SetJWTKey([]byte(cfg.Auth.JWTSecret))

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// === Repos ===
	pipelineRepo := repositories.NewPipelineRepository(db)
	stageRepo := repositories.NewStageRepository(db)
	boardRepo := repositories.NewBoardRepository(db)
	userRepo := repositories.NewUserRepository(db)
	transitionStore := repositories.NewTransitionStore(db)

	// === Realtime ===
	hub := realtime.NewBoardHub()

	// === Services ===
	registryService := services.NewRegistryService(pipelineRepo, stageRepo)
	boardService := services.NewBoardService(boardRepo)
	userService := services.NewUserService(userRepo, []byte(cfg.Auth.JWTSecret), time.Duration(cfg.Auth.TokenTTLMin)*time.Minute)

	enroll := resolveEnrollment(pipelineRepo, stageRepo, cfg.CRM)
	transitionService := services.NewTransitionService(transitionStore, enroll, hub)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService)
	pipelineHandler := handlers.NewPipelineHandler(registryService, boardService)
	dealHandler := handlers.NewDealHandler(transitionService, boardService)
	boardWSHandler := handlers.NewBoardWSHandler(hub)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		pipelineHandler,
		dealHandler,
		boardWSHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}

// resolveEnrollment turns the configured Active Members pipeline/stage names
// into ids once at startup. Missing names disable auto-enrollment; won
// transitions still succeed without it.
func resolveEnrollment(pipelines *repositories.PipelineRepository, stages *repositories.StageRepository, crm config.CRMConfig) services.EnrollmentConfig {
	ctx := context.Background()

	p, err := pipelines.GetByName(ctx, crm.ActiveMembersPipeline)
	if err != nil {
		log.Printf("auto-enrollment disabled: lookup of pipeline %q failed: %v", crm.ActiveMembersPipeline, err)
		return services.EnrollmentConfig{}
	}
	if p == nil {
		log.Printf("auto-enrollment disabled: pipeline %q not found", crm.ActiveMembersPipeline)
		return services.EnrollmentConfig{}
	}
	sts, err := stages.ListByPipeline(ctx, p.ID)
	if err != nil {
		log.Printf("auto-enrollment disabled: stage lookup for pipeline %q failed: %v", crm.ActiveMembersPipeline, err)
		return services.EnrollmentConfig{}
	}
	for _, st := range sts {
		if st.Name == crm.ActiveStage {
			return services.EnrollmentConfig{PipelineID: p.ID, StageID: st.ID}
		}
	}
	log.Printf("auto-enrollment disabled: stage %q not found in pipeline %q", crm.ActiveStage, crm.ActiveMembersPipeline)
	return services.EnrollmentConfig{}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
