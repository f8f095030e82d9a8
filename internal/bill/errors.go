package bill

import (
	"errors"
	"fmt"
)

// Common bill editing errors
var (
	// ErrItemNotFound is returned when a line item id is not on the bill.
	ErrItemNotFound = errors.New("line item not found")

	// ErrPaymentNotFound is returned when a payment id is not on the bill.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrExpenseNotFound is returned when an expense id is not on the bill.
	ErrExpenseNotFound = errors.New("expense not found")

	// ErrMissingDescription is returned when a line item has no description.
	ErrMissingDescription = errors.New("line item description is required")

	// ErrInvalidPayment is returned for zero, negative or non-numeric payment amounts.
	ErrInvalidPayment = errors.New("payment amount must be a positive number")

	// ErrInvalidExpense is returned for zero, negative or non-numeric expense amounts.
	ErrInvalidExpense = errors.New("expense amount must be a positive number")

	// ErrInvalidStatus is returned when a status does not exist or does not
	// belong to the bill's document type.
	ErrInvalidStatus = errors.New("invalid status for document type")

	// ErrConversionNotAllowed is returned when converting anything other than
	// an approved estimate.
	ErrConversionNotAllowed = errors.New("only approved estimates can be converted to an invoice")

	// ErrAlreadyConverted is returned when an estimate already links to an invoice.
	ErrAlreadyConverted = errors.New("estimate has already been converted to an invoice")
)

// ValidationError represents a rejected field on a bill edit.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the sentinel error behind the validation failure.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: err.Error(),
		Err:     err,
	}
}
