// Package apierr defines the closed taxonomy of structured errors the
// kernel returns to its caller. Every kernel-facing error is one of these
// kinds; nothing propagates as a bare error across a tool boundary.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error classification.
type Kind string

const (
	KindValidation     Kind = "ValidationError"
	KindUnknownFileID  Kind = "UnknownFileId"
	KindOutsidePolicy  Kind = "OutsidePolicy"
	KindExecSpawn      Kind = "ExecSpawn"
	KindExecFailed     Kind = "ExecFailed"
	KindExecTimeout    Kind = "ExecTimeout"
	KindTimeout        Kind = "Timeout"
	KindCancelled      Kind = "CancelledError"
	KindAdapter        Kind = "AdapterError"
	KindPlanCompile    Kind = "PlanCompileError"
	KindInternal       Kind = "InternalError"
)

// Error is the structured error type returned across every kernel
// operation boundary. It carries a stable Kind, a human-readable message,
// and optional structured context for client diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Field   string // populated for ValidationError: the offending field path
	Context map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a bare structured error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a structured error that carries an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithField annotates a ValidationError with the offending field path.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithContext attaches a structured context value, returning the receiver
// for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Validation constructs a ValidationError for the given field and reason.
func Validation(field, reason string) *Error {
	return New(KindValidation, reason).WithField(field)
}

// UnknownFileID constructs an UnknownFileId error for the given ID.
func UnknownFileID(id string) *Error {
	return New(KindUnknownFileID, "file id is not registered").WithContext("file_id", id)
}

// OutsidePolicy constructs an OutsidePolicy error for a path that escapes
// the declared workspace roots.
func OutsidePolicy(path string) *Error {
	return New(KindOutsidePolicy, "path is outside the declared workspace roots").WithContext("path", path)
}

// ExecFailed constructs an ExecFailed error carrying the exit code and the
// tail of captured stderr.
func ExecFailed(code int, stderrTail string) *Error {
	return New(KindExecFailed, "external command exited non-zero").
		WithContext("code", code).
		WithContext("stderr_tail", stderrTail)
}

// ExecSpawn constructs an ExecSpawn error for a command that never started.
func ExecSpawn(cause error) *Error {
	return Wrap(KindExecSpawn, "failed to start external command", cause)
}

// ExecTimeout constructs an ExecTimeout error for a process-level deadline.
func ExecTimeout(deadlineS float64) *Error {
	return New(KindExecTimeout, "external command exceeded its deadline").
		WithContext("deadline_s", deadlineS)
}

// Timeout constructs a structured Timeout error carrying the operation ID,
// the estimate that produced the deadline, the deadline itself, and which
// cleanup steps completed.
func Timeout(opID string, estimateS, limitS float64, cleanupSteps []string) *Error {
	return New(KindTimeout, "operation exceeded its deadline and was cancelled").
		WithContext("op_id", opID).
		WithContext("estimate_s", estimateS).
		WithContext("limit_s", limitS).
		WithContext("cleanup_steps", cleanupSteps)
}

// Cancelled constructs a CancelledError for a cooperative cancellation.
func Cancelled(opID string) *Error {
	return New(KindCancelled, "operation was cancelled").WithContext("op_id", opID)
}

// Adapter constructs an AdapterError for an AI adapter failure.
func Adapter(reason string, cause error) *Error {
	return Wrap(KindAdapter, reason, cause)
}

// PlanCompile wraps one or more ValidationErrors raised while compiling a
// komposition document into a build plan.
func PlanCompile(validationErrors []*Error) *Error {
	msgs := make([]any, 0, len(validationErrors))
	for _, v := range validationErrors {
		msgs = append(msgs, v.Error())
	}
	return New(KindPlanCompile, "komposition document failed validation").
		WithContext("errors", msgs)
}

// As reports whether err is an *Error of the given kind.
func As(err error, kind Kind) bool {
	var e *Error
	if ok := errors.As(err, &e); !ok {
		return false
	}
	return e.Kind == kind
}
