package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// CreateOrderInput is what a customer submits when placing an order.
type CreateOrderInput struct {
	AccountCount    int     `json:"account_count" validate:"gt=0"`
	Timezone        string  `json:"timezone" validate:"required,timezone"`
	AccountNameSpec *string `json:"account_name_spec,omitempty" validate:"omitempty,namespec"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		return IsTimezone(fl.Field().String())
	})
	_ = v.RegisterValidation("namespec", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= MaxAccountNameSpecLen
	})
	return v
}

func ValidateCreateOrder(in CreateOrderInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "gt":
			msgs = append(msgs, "account count must be greater than 0")
		case "timezone", "required":
			msgs = append(msgs, fmt.Sprintf("unsupported timezone %q", fe.Value()))
		case "namespec":
			msgs = append(msgs, fmt.Sprintf("account name spec exceeds %d characters", MaxAccountNameSpecLen))
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}
