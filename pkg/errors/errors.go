package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeInvalidQuantity Code = "INVALID_QUANTITY"
	CodeStockExceeded   Code = "STOCK_EXCEEDED"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeUnreachable     Code = "UNREACHABLE"
	CodeRejected        Code = "REJECTED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	Retryable      bool
	KeepsLocalCart bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:      false,
		KeepsLocalCart: true,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeInvalidQuantity: {
		Retryable:      false,
		KeepsLocalCart: true,
		PublicMessage:  "quantity must be a positive amount",
		DetailsAllowed: true,
	},
	CodeStockExceeded: {
		Retryable:      false,
		KeepsLocalCart: true,
		PublicMessage:  "requested quantity exceeds available stock",
		DetailsAllowed: true,
	},
	CodeUnauthenticated: {
		Retryable:      false,
		KeepsLocalCart: true,
		PublicMessage:  "sign in to save your cart to your account",
		DetailsAllowed: false,
	},
	CodeUnreachable: {
		Retryable:      true,
		KeepsLocalCart: true,
		PublicMessage:  "the flower shop is unreachable right now",
		DetailsAllowed: false,
	},
	CodeRejected: {
		Retryable:      false,
		KeepsLocalCart: false,
		PublicMessage:  "the shop declined the cart change",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		Retryable:      false,
		KeepsLocalCart: true,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeInternal: {
		Retryable:      true,
		KeepsLocalCart: true,
		PublicMessage:  "internal error",
		DetailsAllowed: false,
	},
	CodeDependency: {
		Retryable:      true,
		KeepsLocalCart: true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// UserMessage returns the text safe to surface to the shopper: the wrapped
// message when the code allows details, the generic public message otherwise.
func (e *Error) UserMessage() string {
	meta := MetadataFor(e.Code())
	if e != nil && meta.DetailsAllowed && e.message != "" {
		return e.message
	}
	return meta.PublicMessage
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf extracts the code from any error, defaulting to internal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

// HasCode reports whether the error carries the given code.
func HasCode(err error, code Code) bool {
	if typed := As(err); typed != nil {
		return typed.Code() == code
	}
	return false
}
