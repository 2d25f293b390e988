package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every CatalogError unwraps to exactly one of these.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrDepthExceeded       = errors.New("category depth exceeded")
	ErrInvalidCategoryPath = errors.New("invalid category path")
	ErrDuplicateVariant    = errors.New("duplicate variant")
	ErrHasDependents       = errors.New("has dependents")
)

// Error codes rendered to clients
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeDepthExceeded       = "DEPTH_EXCEEDED"
	CodeInvalidCategoryPath = "INVALID_CATEGORY_PATH"
	CodeDuplicateVariant    = "DUPLICATE_VARIANT"
	CodeHasDependents       = "HAS_DEPENDENTS"
)

// CatalogError is a caller-input failure carrying enough detail for a field-level message
type CatalogError struct {
	Kind    error
	Code    string
	Field   string
	Message string
	Details map[string]string
}

func (e *CatalogError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *CatalogError) Unwrap() error {
	return e.Kind
}

// AsCatalogError extracts a CatalogError from an error chain
func AsCatalogError(err error) (*CatalogError, bool) {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func validationError(field, message string) *CatalogError {
	return &CatalogError{Kind: ErrValidation, Code: CodeValidation, Field: field, Message: message}
}

func notFoundError(field, entity string) *CatalogError {
	return &CatalogError{Kind: ErrNotFound, Code: CodeNotFound, Field: field, Message: entity + " not found"}
}

func depthExceededError(field string, maxLevels int) *CatalogError {
	return &CatalogError{
		Kind:    ErrDepthExceeded,
		Code:    CodeDepthExceeded,
		Field:   field,
		Message: fmt.Sprintf("Categories can be nested at most %d levels deep", maxLevels),
	}
}

func invalidCategoryPathError(message string) *CatalogError {
	return &CatalogError{Kind: ErrInvalidCategoryPath, Code: CodeInvalidCategoryPath, Field: "categories", Message: message}
}

func duplicateVariantError(parentValue, childValue string) *CatalogError {
	msg := "A variant with this attribute combination already exists"
	if parentValue != "" && childValue != "" {
		msg = fmt.Sprintf("A variant with %s = %s already exists for this product", parentValue, childValue)
	}
	return &CatalogError{Kind: ErrDuplicateVariant, Code: CodeDuplicateVariant, Field: "attributes", Message: msg}
}

func hasDependentsError(message string, details map[string]string) *CatalogError {
	return &CatalogError{Kind: ErrHasDependents, Code: CodeHasDependents, Message: message, Details: details}
}
