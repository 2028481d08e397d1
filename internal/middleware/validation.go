package middleware

import (
	"fmt"

	"studyhub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateIDParams parses the named path parameters as positive IDs and stores
// them in the context under "validated_<name>".
func (vm *ValidationMiddleware) ValidateIDParams(names ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, name := range names {
			id, errs := vm.validator.ValidateID(name, c.Params(name))
			if len(errs) > 0 {
				return errs // This will be handled by ErrorHandler
			}
			c.Locals(validatedKey(name), id)
		}
		return c.Next()
	}
}

// ValidateQueryID parses an optional numeric query parameter; zero means absent.
func (vm *ValidationMiddleware) ValidateQueryID(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id int64
		if raw := c.Query(name); raw != "" {
			parsed, errs := vm.validator.ValidateID(name, raw)
			if len(errs) > 0 {
				return errs
			}
			id = parsed
		}
		c.Locals(validatedKey(name), id)
		return c.Next()
	}
}

// ValidatedID returns an ID stored by ValidateIDParams or ValidateQueryID.
func ValidatedID(c *fiber.Ctx, name string) int64 {
	id, _ := c.Locals(validatedKey(name)).(int64)
	return id
}

func validatedKey(name string) string {
	return fmt.Sprintf("validated_%s", name)
}
