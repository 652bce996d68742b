package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested user or order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated indicates the request carried no valid caller identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrPaymentNotSuccessful indicates the provider reported a non-succeeded
	// state for the payment; the order status is left untouched.
	ErrPaymentNotSuccessful = errors.New("payment not successful")
)

// ValidationError reports a bad field in a request payload.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// InvalidServiceTypeError reports an unrecognized service type.
type InvalidServiceTypeError struct {
	ServiceType string
}

func (e *InvalidServiceTypeError) Error() string {
	return fmt.Sprintf("invalid service type %q", e.ServiceType)
}

// UnknownItemTypeError reports a dry-cleaning item kind missing from the
// rate table.
type UnknownItemTypeError struct {
	ItemType string
}

func (e *UnknownItemTypeError) Error() string {
	return fmt.Sprintf("unknown dry cleaning item type %q", e.ItemType)
}

// UpstreamError wraps a failed call to the payment provider or the database.
type UpstreamError struct {
	Op  string
	Err error
}

func NewUpstreamError(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
