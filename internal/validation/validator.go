// Package validation checks service inputs with go-playground/validator
// and reports failures as Invalid errors keyed by JSON field name.
package validation

import (
	"reflect"
	"strings"

	"github.com/Khoa280703/admin-vietsov-sub000/internal/apperr"
	"github.com/Khoa280703/admin-vietsov-sub000/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps a configured validator instance. It is safe for
// concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the domain tags registered:
//
//	article_status  one of the article workflow states
//	category_type   one of the category types
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("article_status", func(fl validator.FieldLevel) bool {
		return models.ArticleStatus(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("category_type", func(fl validator.FieldLevel) bool {
		return models.CategoryType(fl.Field().String()).IsValid()
	})

	return &Validator{validate: v}
}

// Struct validates s. Failures come back as apperr.KindInvalid.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return apperr.FromValidation(err)
	}
	return nil
}
