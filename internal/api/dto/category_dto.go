package dto

import "github.com/spec-kit/helpdesk/internal/domain"

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Title string `json:"title"`
}

// CategoryResponse is the public category projection.
type CategoryResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// NewCategoryResponse maps a category.
func NewCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Title: c.Title}
}
