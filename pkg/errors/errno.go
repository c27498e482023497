// Package errors provides the structured error code system for the AI service.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): Service/Module code
//	BB  (00-99): Category code
//	CCC (000-999): Sequence number within the category
//
// Category Codes (BB):
//
//	00: Success
//	01: Request/Validation errors (400)
//	04: Resource not found errors (404)
//	05: Conflict errors (409)
//	07: Internal errors (500)
//	10: Upstream/backend errors (502)
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/grpc/codes"
)

// Errno represents a structured error with code and message.
type Errno struct {
	// Code is the unique error code.
	Code int `json:"code"`

	// HTTP is the HTTP status code to return.
	HTTP int `json:"-"`

	// GRPCCode is the gRPC status code.
	GRPCCode codes.Code `json:"-"`

	// Message is the error message.
	Message string `json:"message"`

	// cause is the underlying error.
	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// Is reports whether target is an Errno with the same code.
func (e *Errno) Is(target error) bool {
	var t *Errno
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithMessage returns a copy of the Errno with a different message.
func (e *Errno) WithMessage(format string, args ...any) *Errno {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// WithCause returns a copy of the Errno wrapping the given error.
func (e *Errno) WithCause(cause error) *Errno {
	clone := *e
	clone.cause = cause
	return &clone
}

// MakeCode builds an error code from service, category and sequence parts.
func MakeCode(service, category, seq int) int {
	return service*100000 + category*1000 + seq
}

var (
	registryMu sync.RWMutex
	registry   = make(map[int]*Errno)
)

// Register registers an Errno for code lookup. It panics on duplicates.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered", e.Code))
	}
	registry[e.Code] = e
	return e
}

// FromError extracts an *Errno from err. Unknown errors map to ErrInternal
// with the original error as cause.
func FromError(err error) *Errno {
	if err == nil {
		return OK
	}
	var e *Errno
	if errors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// HTTPStatus returns the HTTP status for err.
func HTTPStatus(err error) int {
	return FromError(err).HTTP
}

// Predefined errors for the AI service (service code 30).
var (
	// OK represents success.
	OK = Register(&Errno{Code: MakeCode(30, 0, 0), HTTP: http.StatusOK, GRPCCode: codes.OK, Message: "success"})

	// ErrInvalidArgument indicates a malformed or inconsistent request.
	ErrInvalidArgument = Register(&Errno{Code: MakeCode(30, 1, 1), HTTP: http.StatusBadRequest, GRPCCode: codes.InvalidArgument, Message: "invalid argument"})

	// ErrNamespaceNotFound indicates the namespace does not exist.
	ErrNamespaceNotFound = Register(&Errno{Code: MakeCode(30, 4, 1), HTTP: http.StatusNotFound, GRPCCode: codes.NotFound, Message: "namespace not found"})

	// ErrDocumentNotFound indicates the document does not exist.
	ErrDocumentNotFound = Register(&Errno{Code: MakeCode(30, 4, 2), HTTP: http.StatusNotFound, GRPCCode: codes.NotFound, Message: "document not found"})

	// ErrFileNotFound indicates the uploaded source file is unreachable.
	ErrFileNotFound = Register(&Errno{Code: MakeCode(30, 4, 3), HTTP: http.StatusNotFound, GRPCCode: codes.NotFound, Message: "file not found"})

	// ErrNamespaceExists indicates a duplicate namespace name.
	ErrNamespaceExists = Register(&Errno{Code: MakeCode(30, 5, 1), HTTP: http.StatusConflict, GRPCCode: codes.AlreadyExists, Message: "namespace already exists"})

	// ErrInternal is the catch-all internal error.
	ErrInternal = Register(&Errno{Code: MakeCode(30, 7, 1), HTTP: http.StatusInternalServerError, GRPCCode: codes.Internal, Message: "internal server error"})

	// ErrBackend indicates an embedding, model or vector index call failure.
	ErrBackend = Register(&Errno{Code: MakeCode(30, 10, 1), HTTP: http.StatusInternalServerError, GRPCCode: codes.Unavailable, Message: "backend call failed"})
)
