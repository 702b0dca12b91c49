package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Chris-viatas/EmbrHealth/internal/config"
	"github.com/Chris-viatas/EmbrHealth/internal/database"
	"github.com/Chris-viatas/EmbrHealth/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	config.InitLogger(cfg.AppEnv)
	defer func() {
		_ = config.Logger.Sync()
	}()

	if cfg.DBUrl == "" {
		config.Logger.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		config.Logger.Fatalw("Failed to connect to database", "error", err)
	}
	defer database.CloseDB()
	config.Logger.Info("Connected to PostgreSQL")

	app := fiber.New()

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, database.DB)

	config.Logger.Infow("Server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		config.Logger.Fatalw("Server failed to start", "error", err)
	}
}
