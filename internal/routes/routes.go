package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Chris-viatas/EmbrHealth/internal/config"
	"github.com/Chris-viatas/EmbrHealth/internal/handlers"
	"github.com/Chris-viatas/EmbrHealth/internal/middleware"
	"github.com/Chris-viatas/EmbrHealth/internal/repository"
	"github.com/Chris-viatas/EmbrHealth/internal/services"
	chatws "github.com/Chris-viatas/EmbrHealth/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewHealthRecordRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)

	coachService := services.NewCoachService(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	sessions := services.NewSessionRegistry(coachService)
	coachChatService := services.NewCoachChatService(sessions, recordRepo, goalRepo, workoutRepo)
	syncService := services.NewSyncService(db, recordRepo, goalRepo, workoutRepo)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	syncHandler := handlers.NewSyncHandler(syncService)
	coachHandler := handlers.NewCoachHandler(coachChatService, chatHub, cfg.JWTSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	records := authProtected.Group("/records")
	records.Put("/sync", syncHandler.SyncRecords)
	records.Get("", syncHandler.ListRecords)

	authProtected.Put("/goals/sync", syncHandler.SyncGoals)
	authProtected.Put("/workouts/sync", syncHandler.SyncWorkouts)

	coach := authProtected.Group("/coach")
	coach.Get("/messages", coachHandler.GetMessages)
	coach.Post("/messages", coachHandler.SendMessage)

	authProtected.Post("/privacy/export-request", authHandler.RequestDataExport)

	api.Use("/v1/ws", coachHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(coachHandler.HandleWebSocket))
}
