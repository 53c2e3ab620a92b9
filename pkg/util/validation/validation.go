package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON/query names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation("nohtml", func(fl validator.FieldLevel) bool {
		return !ContainsMarkup(fl.Field().String())
	})
}

// Struct validates s and returns a VALIDATION_ERROR DomainError listing
// every failing field, or nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorutil.NewInternalError(err)
	}

	fields := make(map[string][]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
	}
	return errorutil.NewValidationError(fields)
}

// Merge combines validation errors so that one response lists every field.
// Non-validation errors are returned as is.
func Merge(errs ...error) error {
	var merged map[string][]string
	for _, err := range errs {
		if err == nil {
			continue
		}
		var domainErr *errorutil.DomainError
		if !errors.As(err, &domainErr) || domainErr.Code != errorutil.CodeValidation {
			return err
		}
		if merged == nil {
			merged = map[string][]string{}
		}
		for field, msgs := range domainErr.Fields {
			merged[field] = append(merged[field], msgs...)
		}
	}
	if merged == nil {
		return nil
	}
	return errorutil.NewValidationError(merged)
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", field, param)
		}
		return fmt.Sprintf("The %s field must be at least %s.", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", field, param)
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", field, param)
	case "gt", "gte":
		return fmt.Sprintf("The %s field must be greater than %s.", field, param)
	case "nohtml":
		return fmt.Sprintf("The %s field may not contain HTML.", field)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
