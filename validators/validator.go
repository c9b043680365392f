// Package validators adapts go-playground/validator to Echo's Validator
// interface.
package validators

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator wraps the underlying validator library for use as an Echo
// request validator.
type Validator struct {
	cli *validator.Validate
}

// NewValidator initializes and returns a new Validator
func NewValidator() *Validator {
	return &Validator{
		cli: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate validates the provided struct and converts failures into a 400
// HTTP error Echo can render directly.
func (v *Validator) Validate(i interface{}) error {
	if err := v.cli.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
