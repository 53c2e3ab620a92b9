package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const statusOK = "OK"

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"status": statusOK, "data": data})
}

func respondPage[T any, R any](c *fiber.Ctx, page repository.Page[T], mapItem func(*T) R) error {
	items := make([]R, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, mapItem(&page.Items[i]))
	}
	return c.JSON(fiber.Map{
		"status": statusOK,
		"data":   items,
		"meta": dto.PageMeta{
			CurrentPage: page.Page,
			PerPage:     page.PerPage,
			Total:       page.Total,
			LastPage:    page.LastPage(),
		},
	})
}

func currentCaller(c *fiber.Ctx) (domain.Caller, error) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return domain.Caller{}, apperrors.NewUnauthenticated("authentication required")
	}
	return caller, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewFieldError("body", "The request body is malformed.")
	}
	return nil
}

// pathID parses a numeric route parameter. Anything that cannot be an id
// is reported as a missing resource.
func pathID(c *fiber.Ctx, param, resource string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound(resource)
	}
	return id, nil
}

func queryInt64(c *fiber.Ctx, key string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperrors.NewFieldError(key, fmt.Sprintf("The %s field must be an integer.", strings.ReplaceAll(key, "_", " ")))
	}
	return &v, nil
}

func queryString(c *fiber.Ctx, key string) *string {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	return &raw
}
