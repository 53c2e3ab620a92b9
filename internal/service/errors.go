package service

import (
	"errors"
	"fmt"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const invalidCategoryMessage = "The selected category id is invalid."

// mapError converts store and policy errors into DomainErrors. resource
// names the entity reported as missing; out-of-scope access is reported
// the same way so it cannot be told apart from absence.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, access.ErrOutOfScope):
		return apperrors.NewNotFound(resource)
	case errors.Is(err, access.ErrActionNotPermitted), errors.Is(err, access.ErrUnknownRole):
		return apperrors.NewForbidden("this action is unauthorized")
	case errors.Is(err, repository.ErrCategoryNotFound):
		return apperrors.NewFieldError("category_id", invalidCategoryMessage)
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperrors.NewInternalError(err)
	default:
		return apperrors.NewInternalError(fmt.Errorf("%s: %w", resource, err))
	}
}
