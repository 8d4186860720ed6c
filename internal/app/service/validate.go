package service

import (
	"errors"
	"reflect"
	"strings"

	"knowledge_hub/internal/common"

	"github.com/go-playground/validator/v10"
)

// newValidator builds a validator that reports fields by their json names,
// so validation errors point at what the caller actually sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkStruct runs struct validation and converts the first violation into
// the field-level validation error the API reports.
func checkStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return common.NewValidationError(fe.Field(), "is required")
		case "email":
			return common.NewValidationError(fe.Field(), "must be a valid email address")
		default:
			return common.NewValidationError(fe.Field(), "is invalid")
		}
	}
	return common.ErrValidation
}
