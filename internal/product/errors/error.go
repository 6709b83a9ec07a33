// Package errors provides custom error types for product-related operations.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var ErrProductNotFound = errors.New("product not found")
var ErrDuplicateCode = errors.New("product code already exists")
var ErrValidation = errors.New("product validation failed")
var ErrStorageRead = errors.New("can't read product storage")
var ErrStorageWrite = errors.New("can't write product storage")

// ValidationError lists the fields that failed validation on create.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing or empty fields [%s]", ErrValidation, strings.Join(e.Fields, ", "))
}

// Is reports ErrValidation so callers can match on the sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DuplicateCodeError is returned when a product with the same code is already stored.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateCode, e.Code)
}

func (e *DuplicateCodeError) Is(target error) bool {
	return target == ErrDuplicateCode
}

// ReadError wraps a storage read failure with its cause.
func ReadError(path string, cause error) error {
	return fmt.Errorf("%w %s: %w", ErrStorageRead, path, cause)
}

// WriteError wraps a storage write failure with its cause.
func WriteError(path string, cause error) error {
	return fmt.Errorf("%w %s: %w", ErrStorageWrite, path, cause)
}
