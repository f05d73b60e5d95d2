package transport

import (
	"regexp"

	"crm_sync_backend/platform/validator"

	playground "github.com/go-playground/validator/v10"
)

var ledgerCodePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// RegisterValidations adds the CRM-specific validation tags:
// ledgercode accepts intent and status codes such as QUOTE_FOLLOWUP.
func RegisterValidations(val *validator.Validator) error {
	return val.RegisterValidation("ledgercode", func(fl playground.FieldLevel) bool {
		return ledgerCodePattern.MatchString(fl.Field().String())
	})
}
