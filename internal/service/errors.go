package service

import (
	"errors"
	"fmt"
	"strings"
)

// Классы ошибок сервиса. Все три восстановимы на стороне вызывающего:
// это данные, а не фатальный сбой. Неклассифицированные ошибки хранилища
// пробрасываются как есть.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeTenant     = "TENANT_ERROR"
	CodeBusiness   = "BUSINESS_LOGIC_ERROR"
)

// Пополевые коды
const (
	ErrRequired        = "required"
	ErrTypeMismatch    = "type_mismatch"
	ErrEnumInvalid     = "enum_invalid"
	ErrMinLength       = "min_length"
	ErrMaxLength       = "max_length"
	ErrPatternMismatch = "pattern_mismatch"
	ErrOutOfRange      = "out_of_range"
	ErrUniqueViolation = "unique_violation"
	ErrReadOnly        = "readonly_field"
	ErrCustom          = "custom"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

// Error — типизированный отказ сервиса.
type Error struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Field   string       `json:"field,omitempty"`  // для TENANT_ERROR
	Fields  []FieldError `json:"fields,omitempty"` // для VALIDATION_ERROR
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return fmt.Sprintf("%s: %s", e.Code, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(fields ...FieldError) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

func NewTenantError(field, msg string) *Error {
	return &Error{Code: CodeTenant, Message: msg, Field: field}
}

func NewBusinessError(msg string) *Error {
	return &Error{Code: CodeBusiness, Message: msg}
}

// AsServiceError достаёт *Error из цепочки, если он там есть.
func AsServiceError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// asBusiness: ошибка хука становится BUSINESS_LOGIC_ERROR, если хук не
// вернул уже типизированный отказ.
func asBusiness(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsServiceError(err); ok {
		return err
	}
	return NewBusinessError(err.Error())
}
