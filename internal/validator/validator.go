// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tradeflow/internal/models"
)

var tickerRegex = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_side", validateTransactionSide)
		_ = v.RegisterValidation("ticker", validateTicker)
	}
}

func validateTransactionSide(fl validator.FieldLevel) bool {
	return models.TransactionSide(strings.ToUpper(fl.Field().String())).Valid()
}

func validateTicker(fl validator.FieldLevel) bool {
	return ValidTicker(fl.Field().String())
}

// ValidTicker reports whether s, once trimmed and upper-cased, is a ticker
// symbol of 1 to 10 letters, digits, dots or dashes.
func ValidTicker(s string) bool {
	return tickerRegex.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}
