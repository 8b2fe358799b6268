// Package tilegemm structured error types for better error handling
package tilegemm

import (
	"errors"
	"fmt"
)

// ErrorKind represents categories of errors
type ErrorKind int

const (
	// Malformed shape, stride, layout or type combination
	KindDescriptorInvalid ErrorKind = iota
	// No catalog entry matches or accepts the problem
	KindNoApplicableInstance
	// Failure while a launch was in flight
	KindExecution
	// Caller supplied scratch memory is too small
	KindWorkspaceInsufficient
	// Tile plan rejected at build time
	KindInvalidPlan
	// Same instance registered twice
	KindDuplicateInstance
	// Registration after the catalog was sealed
	KindCatalogSealed
)

// Error represents a structured error with context
type Error struct {
	Kind    ErrorKind
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tilegemm %s error in %s: %s (caused by: %v)",
			e.Kind, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("tilegemm %s error in %s: %s", e.Kind, e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. It lets callers
// use errors.Is against the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// String returns the error kind as a string
func (k ErrorKind) String() string {
	switch k {
	case KindDescriptorInvalid:
		return "DescriptorInvalid"
	case KindNoApplicableInstance:
		return "NoApplicableInstance"
	case KindExecution:
		return "Execution"
	case KindWorkspaceInsufficient:
		return "WorkspaceInsufficient"
	case KindInvalidPlan:
		return "InvalidPlan"
	case KindDuplicateInstance:
		return "DuplicateInstance"
	case KindCatalogSealed:
		return "CatalogSealed"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewDescriptorError creates a descriptor validation error
func NewDescriptorError(op string, format string, args ...interface{}) error {
	return &Error{
		Kind:    KindDescriptorInvalid,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewPlanError creates a tile plan validation error
func NewPlanError(op string, format string, args ...interface{}) error {
	return &Error{
		Kind:    KindInvalidPlan,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &Error{
		Kind:    KindExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewWorkspaceError creates a workspace sizing error
func NewWorkspaceError(op string, need, have int) error {
	return &Error{
		Kind:    KindWorkspaceInsufficient,
		Op:      op,
		Message: fmt.Sprintf("workspace needs %d bytes, got %d", need, have),
		Context: need,
	}
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrDescriptorInvalid     = &Error{Kind: KindDescriptorInvalid, Op: "Validate", Message: "descriptor invalid"}
	ErrNoApplicableInstance  = &Error{Kind: KindNoApplicableInstance, Op: "Select", Message: "no applicable instance"}
	ErrExecution             = &Error{Kind: KindExecution, Op: "Launch", Message: "execution failed"}
	ErrWorkspaceInsufficient = &Error{Kind: KindWorkspaceInsufficient, Op: "Launch", Message: "workspace insufficient"}
	ErrInvalidPlan           = &Error{Kind: KindInvalidPlan, Op: "NewTilePlan", Message: "invalid tile plan"}
	ErrDuplicateInstance     = &Error{Kind: KindDuplicateInstance, Op: "Register", Message: "duplicate instance"}
	ErrCatalogSealed         = &Error{Kind: KindCatalogSealed, Op: "Register", Message: "catalog sealed"}
)

// IsDescriptorError checks if an error is a descriptor validation error
func IsDescriptorError(err error) bool {
	return kindOf(err) == KindDescriptorInvalid
}

// IsNoApplicableInstance checks if an error reports an empty selection
func IsNoApplicableInstance(err error) bool {
	return kindOf(err) == KindNoApplicableInstance
}

// IsExecutionError checks if an error is an execution error
func IsExecutionError(err error) bool {
	return kindOf(err) == KindExecution
}

// IsWorkspaceError checks if an error is a workspace sizing error
func IsWorkspaceError(err error) bool {
	return kindOf(err) == KindWorkspaceInsufficient
}

func kindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return -1
}

// Rejection records why one instance refused a problem. A slice of these is
// attached as Context to NoApplicableInstance errors.
type Rejection struct {
	Instance string
	Reason   string
}
