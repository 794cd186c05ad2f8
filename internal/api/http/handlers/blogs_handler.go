package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/blog-service/internal/api/dto"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/service"
	apperrors "github.com/spec-kit/blog-service/pkg/util/errorutil"
)

// BlogsHandler exposes blog endpoints.
type BlogsHandler struct {
	blogs *service.BlogService
}

// NewBlogsHandler constructs handler.
func NewBlogsHandler(blogService *service.BlogService) *BlogsHandler {
	return &BlogsHandler{blogs: blogService}
}

// List handles GET /blog.
func (h *BlogsHandler) List(c *fiber.Ctx) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return err
	}
	perPage, err := queryInt(c, "per_page", 0)
	if err != nil {
		return err
	}

	result, err := h.blogs.List(c.UserContext(), page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": dto.NewBlogListResponse(result.Blogs, result.Page),
	})
}

// Get handles GET /blog/:id.
func (h *BlogsHandler) Get(c *fiber.Ctx) error {
	id, err := blogID(c)
	if err != nil {
		return err
	}
	blog, err := h.blogs.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBlogResponse(blog)})
}

// Create handles POST /blog/create.
func (h *BlogsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("token is missing")
	}
	var req dto.BlogRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	blog, err := h.blogs.Create(c.UserContext(), principal.User.ID, service.BlogInput{Title: req.Title, Content: req.Content})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewBlogResponse(blog)})
}

// Update handles PUT /blog/:id.
func (h *BlogsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("token is missing")
	}
	id, err := blogID(c)
	if err != nil {
		return err
	}
	var req dto.BlogRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	blog, err := h.blogs.Update(c.UserContext(), principal.User.ID, id, service.BlogInput{Title: req.Title, Content: req.Content})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewBlogResponse(blog)})
}

// Search handles GET /blog/search?q=.
func (h *BlogsHandler) Search(c *fiber.Ctx) error {
	blogs, err := h.blogs.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"blogs": dto.NewBlogResponses(blogs)}})
}

func blogID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewFieldError("id", "blog id must be a positive integer")
	}
	return id, nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewFieldError(key, key+" must be an integer")
	}
	return n, nil
}
