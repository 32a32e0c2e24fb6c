// Package domain defines the core error taxonomy shared by the frame and
// dbread packages.
package domain

import "fmt"

// ValidationError indicates invalid input or an invalid option combination.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UnsupportedConnectionError indicates a connection handle whose shape the
// adapter cannot classify, or a connection URI with an unsupported source.
type UnsupportedConnectionError struct {
	Message string
}

func (e *UnsupportedConnectionError) Error() string { return e.Message }

// UnsuitableSQLError indicates a statement that is not a valid read query.
type UnsuitableSQLError struct {
	Message string
}

func (e *UnsuitableSQLError) Error() string { return e.Message }

// ConflictError indicates a duplicate (e.g. a column name appearing twice).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError indicates a referenced column or resource does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnsupportedConnection creates an UnsupportedConnectionError with a
// formatted message.
func ErrUnsupportedConnection(format string, args ...interface{}) *UnsupportedConnectionError {
	return &UnsupportedConnectionError{Message: fmt.Sprintf(format, args...)}
}

// ErrUnsuitableSQL creates an UnsuitableSQLError with a formatted message.
func ErrUnsuitableSQL(format string, args ...interface{}) *UnsuitableSQLError {
	return &UnsuitableSQLError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}
