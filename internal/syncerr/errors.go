// Package syncerr defines the error kinds and warnings shared by the import
// and export pipelines.
//
// Fatal kinds (every one aborts the whole operation, leaving host state as it
// was before the operation began):
//   - Resolution: a Stack/Clip has no sequence path after metadata and hooks
//   - Precondition: the top-level target sequence does not exist
//   - Hook: a registered hook returned an error
//   - Mutation: the host rejected a create/update/remove mid-transaction
//   - Cancelled: the plan was rejected before the applier started
//
// Unsupported constructs are not errors; they are collected as Warnings and
// reported next to a successful result.
package syncerr

import (
	"errors"
	"fmt"
)

// Code categorizes fatal errors.
type Code string

const (
	// CodeResolution indicates a node has no sequence path to map onto.
	CodeResolution Code = "RESOLUTION_FAILED"

	// CodePrecondition indicates the root sequence is missing.
	CodePrecondition Code = "PRECONDITION_FAILED"

	// CodeHook indicates a registered hook failed.
	CodeHook Code = "HOOK_FAILED"

	// CodeMutation indicates the host rejected a write.
	CodeMutation Code = "MUTATION_FAILED"

	// CodeCancelled indicates the plan was not approved.
	CodeCancelled Code = "CANCELLED"
)

// Error is a fatal pipeline error with enough structure for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Path is the sequence asset path involved, if any.
	Path string

	// Item names the timeline item involved, if any.
	Item string

	// Stage and Hook identify a failing hook (HOOK_FAILED only).
	Stage string
	Hook  string

	// OpIndex is the failing plan op (MUTATION_FAILED only); -1 otherwise.
	OpIndex int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Hook != "":
		msg += fmt.Sprintf(" (stage=%s, hook=%s)", e.Stage, e.Hook)
	case e.Code == CodeMutation && e.Path != "":
		msg += fmt.Sprintf(" (op=%d, path=%s)", e.OpIndex, e.Path)
	case e.Path != "":
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	case e.Item != "":
		msg += fmt.Sprintf(" (item=%s)", e.Item)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewResolutionError reports a node that could not be mapped to a sequence.
func NewResolutionError(item, message string) *Error {
	return &Error{Code: CodeResolution, Message: message, Item: item, OpIndex: -1}
}

// NewPreconditionError reports a missing root sequence.
func NewPreconditionError(path string) *Error {
	return &Error{
		Code:    CodePrecondition,
		Message: "top-level sequence must exist before import",
		Path:    path,
		OpIndex: -1,
	}
}

// NewHookError wraps an error returned by a hook.
func NewHookError(stage, hook string, err error) *Error {
	return &Error{
		Code:    CodeHook,
		Message: "hook failed",
		Stage:   stage,
		Hook:    hook,
		OpIndex: -1,
		Err:     err,
	}
}

// NewMutationError wraps a host error raised while applying op opIndex.
func NewMutationError(opIndex int, path string, err error) *Error {
	return &Error{
		Code:    CodeMutation,
		Message: "host rejected mutation",
		Path:    path,
		OpIndex: opIndex,
		Err:     err,
	}
}

// ErrCancelled is returned when the plan is rejected before application.
var ErrCancelled = &Error{Code: CodeCancelled, Message: "operation cancelled before any change was made", OpIndex: -1}

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsResolution reports whether err is a resolution failure.
func IsResolution(err error) bool { return CodeOf(err) == CodeResolution }

// IsPrecondition reports whether err is a missing-root failure.
func IsPrecondition(err error) bool { return CodeOf(err) == CodePrecondition }

// IsHook reports whether err came from a hook.
func IsHook(err error) bool { return CodeOf(err) == CodeHook }

// IsMutation reports whether err is a host rejection.
func IsMutation(err error) bool { return CodeOf(err) == CodeMutation }

// IsCancelled reports whether the operation was rejected before applying.
func IsCancelled(err error) bool { return CodeOf(err) == CodeCancelled }
