// Package apperr classifies domain failures by kind so transports can map
// them without reading messages.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-stack/stack"
	"github.com/rs/zerolog"
)

// Kind is the machine-readable class of an error.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid_argument"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Wrapped error
	Stack   CallStack
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithDetail returns a copy of e with key set in its details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	cp := *e
	cp.Details = details
	return &cp
}

type CallStack []StackFrame

func (s CallStack) MarshalZerologArray(a *zerolog.Array) {
	for _, frame := range s {
		a.Object(frame)
	}
}

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) MarshalZerologObject(e *zerolog.Event) {
	e.
		Str("file", f.File).
		Int("line", f.Line).
		Str("function", f.Function)
}

// ZerologStackMarshaler lets `.Stack()` log the frames captured by Wrap.
var ZerologStackMarshaler = func(err error) interface{} {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Stack != nil {
		return appErr.Stack
	}
	return nil
}

func newKind(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newKind(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newKind(KindConflict, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newKind(KindForbidden, format, args...)
}

func Invalid(format string, args ...any) *Error {
	return newKind(KindInvalid, format, args...)
}

// Wrap marks err as an unexpected infrastructure failure and records the
// caller's stack. Errors that already carry a kind pass through untouched.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	trace := stack.Trace().TrimRuntime()
	frames := make(CallStack, len(trace))
	for i, call := range trace {
		callFrame := call.Frame()
		frames[i] = StackFrame{
			File:     callFrame.File,
			Line:     callFrame.Line,
			Function: callFrame.Function,
		}
	}

	return &Error{
		Kind:    KindUnexpected,
		Message: fmt.Sprintf(format, args...),
		Wrapped: err,
		Stack:   frames,
	}
}

// KindOf reports the kind of err. Plain errors are unexpected.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnexpected
}

func IsNotFound(err error) bool  { return err != nil && KindOf(err) == KindNotFound }
func IsConflict(err error) bool  { return err != nil && KindOf(err) == KindConflict }
func IsForbidden(err error) bool { return err != nil && KindOf(err) == KindForbidden }
func IsInvalid(err error) bool   { return err != nil && KindOf(err) == KindInvalid }

// FromValidation converts validator failures into an Invalid error with one
// detail per field. Any other error is returned unchanged.
func FromValidation(err error) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	details := make(map[string]any, len(valErrs))
	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		msg := formatValidationError(ve)
		details[ve.Field()] = msg
		messages = append(messages, ve.Field()+": "+msg)
	}
	return &Error{
		Kind:    KindInvalid,
		Message: strings.Join(messages, "; "),
		Details: details,
	}
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "slug":
		return "must be lowercase letters, digits and single hyphens"
	case "article_status":
		return "must be a known article status"
	case "category_type":
		return "must be a known category type"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
