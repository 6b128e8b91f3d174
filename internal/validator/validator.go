// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// msisdnRegex accepts Kenyan mobile numbers in the forms the STK push
// adapter can normalize: 07XXXXXXXX, 01XXXXXXXX, 2547XXXXXXXX, +2547XXXXXXXX.
var msisdnRegex = regexp.MustCompile(`^(\+?254|0)(1|7)\d{8}$`)

// validCurrencies contains the ISO 4217 codes wallets can be denominated in.
var validCurrencies = map[string]bool{
	"AUD": true, "CAD": true, "CHF": true, "CNY": true, "EUR": true,
	"GBP": true, "INR": true, "JPY": true, "KES": true, "NGN": true,
	"TZS": true, "UGX": true, "USD": true, "ZAR": true,
}

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
		_ = v.RegisterValidation("msisdn", validateMSISDN)
	}
}

func validateISO4217(fl validator.FieldLevel) bool {
	return validCurrencies[fl.Field().String()]
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense", "transfer", "deposit":
		return true
	}
	return false
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "weekly", "monthly", "yearly":
		return true
	}
	return false
}

func validateMSISDN(fl validator.FieldLevel) bool {
	return msisdnRegex.MatchString(fl.Field().String())
}
