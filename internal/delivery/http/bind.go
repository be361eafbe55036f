package http

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"gopkg.in/validator.v2"

	"myfunds/internal/domain"
)

// bindAndValidate decodes the request body into req and checks its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
