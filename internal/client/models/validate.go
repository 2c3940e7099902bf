package models

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
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
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// Validate checks v's struct tags and returns a KindValidation error whose
// details map json field names to the failed rule.
func Validate(op string, v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.Wrap(common.KindValidation, op, err)
	}

	details := make(map[string]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = formatRule(fe)
		names = append(names, fe.Field()+" "+formatRule(fe))
	}
	return common.New(common.KindValidation, op, strings.Join(names, "; ")).WithDetails(details)
}

func formatRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	default:
		return "failed " + fe.Tag()
	}
}
