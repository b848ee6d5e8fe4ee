package client

import (
	"errors"
	"strings"
)

// Op names one of the five remote product operations
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// FallbackMessage is the human readable message used when the remote API
// does not supply one
func (o Op) FallbackMessage() string {
	switch o {
	case OpList:
		return "Failed to load products"
	case OpGet:
		return "Failed to load product"
	case OpCreate:
		return "Failed to create product"
	case OpUpdate:
		return "Failed to update product"
	case OpDelete:
		return "Failed to delete product"
	default:
		return "Request failed"
	}
}

// Kind classifies a failed operation
type Kind int

const (
	KindTransport Kind = iota
	KindValidation
	KindNotFound
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("product not found")
	// ErrTransport also covers conflicts, which the remote API does not
	// report distinctly.
	ErrTransport = errors.New("transport error")
)

// FieldError describes a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the outcome of every failed operation
type Error struct {
	Op      Op
	Kind    Kind
	Status  int // HTTP status, 0 if no response was received
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the Kind sentinels so callers can use errors.Is
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrTransport:
		return e.Kind == KindTransport
	}
	return false
}

// Message extracts the user facing message of err, or fallback when err
// carries none
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		return err.Error()
	}
	return fallback
}

func transportError(op Op, status int, message string, cause error) *Error {
	if strings.TrimSpace(message) == "" {
		message = op.FallbackMessage()
	}
	return &Error{Op: op, Kind: KindTransport, Status: status, Message: message, Err: cause}
}
