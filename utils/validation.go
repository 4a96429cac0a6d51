package utils

import (
	"errors"
	"fmt"
	"strings"

	"admin-dashboard/services"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ParseBody decodes the JSON body into out and checks its validate tags.
// Failures are wrapped in services.ErrValidation.
func ParseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", services.ErrValidation, err)
	}
	return ValidateStruct(out)
}

func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", services.ErrValidation, strings.Join(msgs, ", "))
}
