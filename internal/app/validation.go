package app

import (
	"errors"
	"strings"

	"socialmedia/internal/domain"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// notblank rejects strings that are empty after trimming whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Tags shared by struct validation and single-value checks.
const (
	passwordRules    = "notblank,min=4,max=254"
	messageTextRules = "notblank,min=1,max=254"
)

func validateStruct(s any) error {
	return toDomain(validate.Struct(s))
}

func validateVar(field string, value any, rules string) error {
	err := validate.Var(value, rules)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return domain.Invalid("%s failed %s", field, ve[0].Tag())
	}
	return err
}

// toDomain reports the first failing field as an ErrValidation.
func toDomain(err error) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return domain.Invalid("%s failed %s", ve[0].Field(), ve[0].Tag())
	}
	return err
}

// report logs err at a level matching its kind and returns it unchanged.
func report(log *zap.Logger, op string, err error) error {
	switch {
	case err == nil:
	case domain.IsStorage(err):
		log.Error(op+" failed", zap.Error(err))
	default:
		log.Debug(op+" rejected", zap.Error(err))
	}
	return err
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
