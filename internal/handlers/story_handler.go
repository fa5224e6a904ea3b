package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sonakanda/backend/internal/models"
	"github.com/sonakanda/backend/internal/services"
	"github.com/sonakanda/backend/pkg/blobstore"
)

// StoryHandler handles story-related HTTP requests.
type StoryHandler struct {
	feedService *services.FeedService
	blobStore   blobstore.Store
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(feedService *services.FeedService, blobStore blobstore.Store) *StoryHandler {
	return &StoryHandler{feedService: feedService, blobStore: blobStore}
}

// RegisterStoryRoutes registers story-related routes.
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.GET("/stories", h.GetStories)
	g.GET("/stories/:id", h.GetStory)
	g.POST("/stories", h.CreateStory)
}

// GetStory returns a single story by id, expired or not.
func (h *StoryHandler) GetStory(c echo.Context) error {
	story, err := h.feedService.GetStory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return feedError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": story})
}

// GetStories returns the active stories, newest first. Expired stories
// never appear even if the purge sweep has not run yet.
func (h *StoryHandler) GetStories(c echo.Context) error {
	stories, err := h.feedService.ListActiveStories(c.Request().Context())
	if err != nil {
		return feedError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": stories})
}

// CreateStory publishes a single-image story. Multipart requests carry
// the file in an "image" field; JSON requests carry a pre-resolved
// reference.
func (h *StoryHandler) CreateStory(c echo.Context) error {
	userID := userIDFromContext(c)

	var req models.CreateStoryRequest
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("image")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Story needs an image")
		}
		ref, err := h.storeUpload(c, file)
		if err != nil {
			return err
		}
		req.Image = ref
	} else {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	story, err := h.feedService.PublishStory(c.Request().Context(), userID, req.Image)
	if err != nil {
		return feedError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": story})
}

func (h *StoryHandler) storeUpload(c echo.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Unreadable upload")
	}
	defer src.Close()

	ref, err := h.blobStore.Save(c.Request().Context(), file.Filename, src)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadGateway, "Image storage failed")
	}
	return ref, nil
}
