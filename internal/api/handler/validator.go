package handler

import (
	"github.com/ers-app/reimbursement-api/internal/core/domain"
	"github.com/ers-app/reimbursement-api/internal/core/validation"
)

// echoValidator lets Echo call c.Validate(req) on request payloads.
type echoValidator struct{}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{}
}

// Validate satisfies the echo.Validator interface.
func (echoValidator) Validate(i any) error {
	if err := validation.ValidateObject(i); err != nil {
		return domain.NewError(domain.KindBadRequest, "%v", err)
	}
	return nil
}
