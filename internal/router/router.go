package router

import (
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sonakanda/backend/internal/handlers"
	"github.com/sonakanda/backend/internal/middleware"
	"github.com/sonakanda/backend/internal/repositories"
	"github.com/sonakanda/backend/internal/services"
	"github.com/sonakanda/backend/pkg/blobstore"
)

// SetupMiddleware configures global Echo middleware.
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes wires handlers to routes. Repositories and services are
// constructed by the caller so storage backends stay swappable.
func SetupRoutes(e *echo.Echo, feedService *services.FeedService, userRepo repositories.UserRepository, blobStore blobstore.Store, uploadDir string) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// Uploaded images are served straight from the blob directory.
	e.Static("/uploads", uploadDir)

	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())

	feedHandler := handlers.NewFeedHandler(feedService, blobStore)
	feedHandler.RegisterFeedRoutes(api)

	storyHandler := handlers.NewStoryHandler(feedService, blobStore)
	storyHandler.RegisterStoryRoutes(api)

	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterUserRoutes(api)

	logrus.Info("all routes configured")
}
