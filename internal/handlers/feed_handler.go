package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sonakanda/backend/internal/models"
	"github.com/sonakanda/backend/internal/repositories"
	"github.com/sonakanda/backend/internal/services"
	"github.com/sonakanda/backend/pkg/blobstore"
)

// FeedHandler handles HTTP requests for posts, likes and comments.
type FeedHandler struct {
	feedService *services.FeedService
	blobStore   blobstore.Store
}

// NewFeedHandler creates a new FeedHandler.
func NewFeedHandler(feedService *services.FeedService, blobStore blobstore.Store) *FeedHandler {
	return &FeedHandler{feedService: feedService, blobStore: blobStore}
}

// RegisterFeedRoutes registers post-related routes.
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetPosts)
	g.POST("/posts/:id/like", h.ToggleLike)
	g.POST("/posts/:id/comments", h.AddComment)
}

// CreatePost publishes a post. Multipart requests carry a content field
// plus up to six "images" files; JSON requests carry pre-resolved image
// references. Every upload is stored before the post is created, so a
// blob failure never leaves a post pointing at a missing image.
func (h *FeedHandler) CreatePost(c echo.Context) error {
	userID := userIDFromContext(c)

	var req models.CreatePostRequest
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		req.Content = c.FormValue("content")
		form, err := c.MultipartForm()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart payload")
		}
		refs, err := h.storeUploads(c, form.File["images"])
		if err != nil {
			return err
		}
		req.Images = refs
	} else {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	post, err := h.feedService.PublishPost(c.Request().Context(), userID, req.Content, req.Images)
	if err != nil {
		return feedError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": post})
}

// GetPosts returns the full feed, most recent first.
func (h *FeedHandler) GetPosts(c echo.Context) error {
	posts, err := h.feedService.ListPosts(c.Request().Context())
	if err != nil {
		return feedError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": posts})
}

// ToggleLike flips the caller's like on a post.
func (h *FeedHandler) ToggleLike(c echo.Context) error {
	userID := userIDFromContext(c)

	post, err := h.feedService.ToggleLike(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return feedError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": post})
}

// AddComment appends a comment to a post.
func (h *FeedHandler) AddComment(c echo.Context) error {
	userID := userIDFromContext(c)

	var req models.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	post, err := h.feedService.AddComment(c.Request().Context(), c.Param("id"), userID, req.Text)
	if err != nil {
		return feedError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": post})
}

// storeUploads resolves every uploaded file to a blob reference before
// any entity is created.
func (h *FeedHandler) storeUploads(c echo.Context, files []*multipart.FileHeader) ([]string, error) {
	refs := make([]string, 0, len(files))
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "Unreadable upload")
		}
		ref, err := h.blobStore.Save(c.Request().Context(), file.Filename, src)
		src.Close()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadGateway, "Image storage failed")
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// userIDFromContext returns the authenticated principal id injected by
// the auth middleware. The core trusts it as-is.
func userIDFromContext(c echo.Context) string {
	if id, ok := c.Get("userID").(string); ok {
		return id
	}
	return ""
}

// feedError maps the service error taxonomy onto distinct response
// categories: fix your input, nothing here, or try again later.
func feedError(err error) *echo.HTTPError {
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Message)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	var de *services.DependencyError
	if errors.As(err, &de) {
		return echo.NewHTTPError(http.StatusBadGateway, "Upstream dependency failed")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
