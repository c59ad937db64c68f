package services

import (
	"github.com/cogzy/cogzy-api/utils"
)

// validateInput runs struct validation and converts field failures into a
// validation DomainError carrying message
func validateInput(input interface{}, message string) error {
	err := utils.ValidateStruct(input)
	if err == nil {
		return nil
	}
	if fields := utils.GetValidationFields(err); fields != nil {
		return NewValidationError(message, fields)
	}
	return WrapInternal(MsgUnexpected, err)
}
