// Package validation validates request payloads with go-playground/validator
// and the domain tags platform, post_type and cron.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"postdeck/internal/models"

	"github.com/adhocore/gronx"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		_ = validate.RegisterValidation("platform", validatePlatform)
		_ = validate.RegisterValidation("post_type", validatePostType)
		_ = validate.RegisterValidation("cron", validateCron)
	})
	return validate
}

// jsonName reports fields by their JSON name when they have one.
func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

func validatePlatform(fl validator.FieldLevel) bool {
	_, ok := models.ParsePlatform(fl.Field().String())
	return ok
}

func validatePostType(fl validator.FieldLevel) bool {
	return models.PostType(fl.Field().String()).Valid()
}

func validateCron(fl validator.FieldLevel) bool {
	return IsValidCron(fl.Field().String())
}

// IsValidCron reports whether expr is a cron expression gronx can schedule.
func IsValidCron(expr string) bool {
	expr = strings.TrimSpace(expr)
	return expr != "" && gronx.IsValid(expr)
}

// Struct validates v and returns a validation AppError naming every failed
// field, or nil.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return models.NewValidationError(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "platform":
		return fmt.Sprintf("%s: unknown platform %q", field, fe.Value())
	case "post_type":
		return fmt.Sprintf("%s: unknown post type %q", field, fe.Value())
	case "cron":
		return fmt.Sprintf("%s: invalid cron expression %q", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
