package services

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/tipsync/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.Wrap(common.KindValidation, op, err)
	}
	details := make(map[string]string, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
		msgs = append(msgs, fe.Field()+" "+fe.Tag())
	}
	return common.New(common.KindValidation, op, strings.Join(msgs, "; ")).WithDetails(details)
}
