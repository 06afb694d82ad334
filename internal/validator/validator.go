// Package validator provides custom validation functions for Gin's binding engine
// and the plain checks the services share with it.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var monthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("budget_month", validateBudgetMonth)
		_ = v.RegisterValidation("notblank", validateNotBlank)
	}
}

// ValidMonth reports whether s is a YYYY-MM month with a month between 01 and 12.
func ValidMonth(s string) bool {
	return monthRegex.MatchString(s)
}

func validateBudgetMonth(fl validator.FieldLevel) bool {
	return ValidMonth(fl.Field().String())
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
