// Package errors provides error types and error codes shared by the
// attribute cache, the node tree, and the drive registry. This is a leaf
// package with no internal dependencies, designed to be imported by every
// other pkg/ package without causing circular imports.
//
// Import graph: errors <- attrcache <- tree <- drive service / api
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrNotRegularEntry indicates a path that is neither a regular file
	// nor a directory (symlink, socket, device, or missing entirely).
	ErrNotRegularEntry ErrorCode = iota + 1

	// ErrNotRegularFile indicates a file-only operation was attempted on
	// something that is not a regular file.
	ErrNotRegularFile

	// ErrInvalidArgument indicates a malformed argument (bad digest,
	// non-positive timestamp, empty name).
	ErrInvalidArgument

	// ErrIdentityMismatch indicates the on-disk identity no longer matches
	// the identity the caller captured. The entry was replaced concurrently.
	ErrIdentityMismatch

	// ErrStaleTimestamp indicates the entry's modification time changed
	// between hash computation and commit.
	ErrStaleTimestamp

	// ErrNodeDetached indicates an operation that requires an attached node
	// was invoked on a detached one.
	ErrNodeDetached

	// ErrNodeAttached indicates an attach was attempted on a node that is
	// already part of a tree.
	ErrNodeAttached

	// ErrNodeNotFound indicates no node with the given identifier exists in
	// the tree.
	ErrNodeNotFound

	// ErrNotContainer indicates a child operation was attempted on a node
	// that cannot hold children.
	ErrNotContainer

	// ErrDriveNotFound indicates the requested drive does not exist.
	ErrDriveNotFound

	// ErrDriveExists indicates a drive with the same identity already exists.
	ErrDriveExists

	// ErrDriveConfig indicates a drive descriptor is misconfigured (unknown
	// access type, missing owner). Reported rather than silently denied.
	ErrDriveConfig

	// ErrIO indicates an underlying filesystem or storage failure.
	ErrIO
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrNotRegularEntry:
		return "NotRegularEntry"
	case ErrNotRegularFile:
		return "NotRegularFile"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrIdentityMismatch:
		return "IdentityMismatch"
	case ErrStaleTimestamp:
		return "StaleTimestamp"
	case ErrNodeDetached:
		return "NodeDetached"
	case ErrNodeAttached:
		return "NodeAttached"
	case ErrNodeNotFound:
		return "NodeNotFound"
	case ErrNotContainer:
		return "NotContainer"
	case ErrDriveNotFound:
		return "DriveNotFound"
	case ErrDriveExists:
		return "DriveExists"
	case ErrDriveConfig:
		return "DriveConfig"
	case ErrIO:
		return "IO"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// Error represents a nestfs error with an error code and optional path
// context. The underlying cause, if any, is available through Unwrap.
type Error struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode carried by err, or 0 if err does not carry one.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}

// ============================================================================
// Factory Functions
// ============================================================================

// NewNotRegularEntryError creates a NotRegularEntry error.
func NewNotRegularEntryError(path string) *Error {
	return &Error{
		Code:    ErrNotRegularEntry,
		Message: "not a regular file or directory",
		Path:    path,
	}
}

// NewNotRegularFileError creates a NotRegularFile error.
func NewNotRegularFileError(path string) *Error {
	return &Error{
		Code:    ErrNotRegularFile,
		Message: "not a regular file",
		Path:    path,
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *Error {
	return &Error{
		Code:    ErrInvalidArgument,
		Message: message,
	}
}

// NewIdentityMismatchError creates an IdentityMismatch error.
func NewIdentityMismatchError(path string) *Error {
	return &Error{
		Code:    ErrIdentityMismatch,
		Message: "entry identity changed",
		Path:    path,
	}
}

// NewStaleTimestampError creates a StaleTimestamp error.
func NewStaleTimestampError(path string) *Error {
	return &Error{
		Code:    ErrStaleTimestamp,
		Message: "entry modified since hash computation",
		Path:    path,
	}
}

// NewNodeDetachedError creates a NodeDetached error.
func NewNodeDetachedError(id string) *Error {
	return &Error{
		Code:    ErrNodeDetached,
		Message: fmt.Sprintf("node %s is not attached", id),
	}
}

// NewNodeAttachedError creates a NodeAttached error.
func NewNodeAttachedError(id string) *Error {
	return &Error{
		Code:    ErrNodeAttached,
		Message: fmt.Sprintf("node %s is already attached", id),
	}
}

// NewNodeNotFoundError creates a NodeNotFound error.
func NewNodeNotFoundError(id string) *Error {
	return &Error{
		Code:    ErrNodeNotFound,
		Message: fmt.Sprintf("node %s not found", id),
	}
}

// NewNotContainerError creates a NotContainer error.
func NewNotContainerError(id string) *Error {
	return &Error{
		Code:    ErrNotContainer,
		Message: fmt.Sprintf("node %s cannot hold children", id),
	}
}

// NewDriveNotFoundError creates a DriveNotFound error.
func NewDriveNotFoundError(name string) *Error {
	return &Error{
		Code:    ErrDriveNotFound,
		Message: fmt.Sprintf("drive %s not found", name),
	}
}

// NewDriveExistsError creates a DriveExists error.
func NewDriveExistsError(name string) *Error {
	return &Error{
		Code:    ErrDriveExists,
		Message: fmt.Sprintf("drive %s already exists", name),
	}
}

// NewDriveConfigError creates a DriveConfig error.
func NewDriveConfigError(message string) *Error {
	return &Error{
		Code:    ErrDriveConfig,
		Message: message,
	}
}

// NewIOError creates an IO error wrapping the underlying cause.
func NewIOError(path string, err error) *Error {
	msg := "i/o failure"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrIO,
		Message: msg,
		Path:    path,
		Err:     err,
	}
}

// ============================================================================
// Type Checking Helpers
// ============================================================================

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsNotRegularEntry checks if an error is a NotRegularEntry error.
func IsNotRegularEntry(err error) bool {
	return hasCode(err, ErrNotRegularEntry)
}

// IsNotRegularFile checks if an error is a NotRegularFile error.
func IsNotRegularFile(err error) bool {
	return hasCode(err, ErrNotRegularFile)
}

// IsInvalidArgument checks if an error is an InvalidArgument error.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrInvalidArgument)
}

// IsIdentityMismatch checks if an error is an IdentityMismatch error.
func IsIdentityMismatch(err error) bool {
	return hasCode(err, ErrIdentityMismatch)
}

// IsStaleTimestamp checks if an error is a StaleTimestamp error.
func IsStaleTimestamp(err error) bool {
	return hasCode(err, ErrStaleTimestamp)
}

// IsNodeDetached checks if an error is a NodeDetached error.
func IsNodeDetached(err error) bool {
	return hasCode(err, ErrNodeDetached)
}

// IsNodeAttached checks if an error is a NodeAttached error.
func IsNodeAttached(err error) bool {
	return hasCode(err, ErrNodeAttached)
}

// IsNodeNotFound checks if an error is a NodeNotFound error.
func IsNodeNotFound(err error) bool {
	return hasCode(err, ErrNodeNotFound)
}

// IsNotContainer checks if an error is a NotContainer error.
func IsNotContainer(err error) bool {
	return hasCode(err, ErrNotContainer)
}

// IsDriveNotFound checks if an error is a DriveNotFound error.
func IsDriveNotFound(err error) bool {
	return hasCode(err, ErrDriveNotFound)
}

// IsDriveExists checks if an error is a DriveExists error.
func IsDriveExists(err error) bool {
	return hasCode(err, ErrDriveExists)
}

// IsDriveConfig checks if an error is a DriveConfig error.
func IsDriveConfig(err error) bool {
	return hasCode(err, ErrDriveConfig)
}

// IsIO checks if an error is an IO error.
func IsIO(err error) bool {
	return hasCode(err, ErrIO)
}
