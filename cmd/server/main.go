package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sonakanda/backend/internal/models"
	"github.com/sonakanda/backend/internal/repositories"
	"github.com/sonakanda/backend/internal/router"
	"github.com/sonakanda/backend/internal/services"
	"github.com/sonakanda/backend/pkg/blobstore"
	"github.com/sonakanda/backend/pkg/config"
)

func main() {
	config.LoadDotenv()
	cfg := config.Load()

	var (
		postRepo  repositories.PostRepository
		storyRepo repositories.StoryRepository
		userRepo  repositories.UserRepository
	)

	if cfg.MongoURI != "" {
		mongoClient, err := config.InitMongo(cfg.MongoURI)
		if err != nil {
			logrus.WithError(err).Fatal("failed to initialize MongoDB")
		}
		defer config.CloseMongo(mongoClient)

		db := mongoClient.Database("sonakanda")
		postRepo = repositories.NewMongoPostRepository(db)
		storyRepo = repositories.NewMongoStoryRepository(db)
	} else {
		logrus.Warn("MONGO_URI not set, using in-memory post/story storage")
		postRepo = repositories.NewMemoryPostRepository()
		storyRepo = repositories.NewMemoryStoryRepository()
	}

	if cfg.PostgresConnStr != "" {
		pgdb, err := config.InitPostgres(cfg.PostgresConnStr)
		if err != nil {
			logrus.WithError(err).Fatal("failed to initialize PostgreSQL")
		}
		defer config.ClosePostgres(pgdb)

		if err := pgdb.AutoMigrate(&models.User{}); err != nil {
			logrus.WithError(err).Fatal("failed to auto migrate user directory")
		}
		userRepo = repositories.NewPostgresUserRepository(pgdb)
	} else {
		logrus.Warn("POSTGRES_CONN_STR not set, using in-memory user directory")
		userRepo = repositories.NewMemoryUserRepository()
	}

	blobStore, err := blobstore.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize blob store")
	}

	feedService := services.NewFeedService(postRepo, storyRepo, userRepo)

	// Expired stories stay invisible through the read filter; the reaper
	// just reclaims space.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go feedService.RunStoryReaper(reaperCtx, cfg.ReaperInterval)

	e := echo.New()
	router.SetupMiddleware(e)
	router.SetupRoutes(e, feedService, userRepo, blobStore, blobStore.Dir())

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
