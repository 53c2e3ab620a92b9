package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CategoriesHandler exposes category endpoints.
type CategoriesHandler struct {
	categories *service.CategoryService
}

// NewCategoriesHandler builds handler.
func NewCategoriesHandler(categories *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// ListCategories GET /category.
func (h *CategoriesHandler) ListCategories(c *fiber.Ctx) error {
	caller, err := currentCaller(c)
	if err != nil {
		return err
	}
	page, err := h.categories.List(c.UserContext(), caller, c.QueryInt("page", 1), c.QueryInt("per_page", 0))
	if err != nil {
		return err
	}
	return respondPage(c, page, dto.NewCategoryResponse)
}

// CreateCategory POST /category.
func (h *CategoriesHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	category, err := h.categories.Create(c.UserContext(), service.CategoryInput{Title: req.Title})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, dto.NewCategoryResponse(category))
}

// GetCategory GET /category/:id.
func (h *CategoriesHandler) GetCategory(c *fiber.Ctx) error {
	id, err := pathID(c, "id", "category")
	if err != nil {
		return err
	}
	category, err := h.categories.Find(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, dto.NewCategoryResponse(category))
}
