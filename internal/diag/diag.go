// Package diag holds the structured error shape shared by every stage of the
// pipeline: parse-adjacent validation, graph compilation, generation and
// post-run verification all report through *diag.Error so the report layer
// can render them uniformly.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Severity distinguishes blocking errors from advisory warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Well-known error codes.
const (
	CodeGenerationFailed      = "E_GENERATION_FAILED"
	CodeConflict              = "E_CONFLICT"
	CodeDependencyUnresolved  = "E_DEPENDENCY_UNRESOLVED"
	CodeParentClassNotFound   = "E_PARENT_CLASS_NOT_FOUND"
	CodeMissingRequiredField  = "E_MISSING_REQUIRED_FIELD"
	CodeInvalidValue          = "E_INVALID_VALUE"
	CodeEventGraphNotFound    = "E_EVENT_GRAPH_NOT_FOUND"
	CodeDuplicateNodeID       = "E_DUPLICATE_NODE_ID"
	CodeUnknownNode           = "E_UNKNOWN_NODE"
	CodeUnknownNodeType       = "E_UNKNOWN_NODE_TYPE"
	CodeUnknownPin            = "E_UNKNOWN_PIN"
	CodePinDirection          = "E_PIN_DIRECTION"
	CodePinTypeMismatch       = "E_PIN_TYPE_MISMATCH"
	CodeFunctionNotFound      = "E_FUNCTION_NOT_FOUND"
	CodeDialogueCycle         = "E_DIALOGUE_CYCLE"
	CodeDanglingReply         = "E_DANGLING_REPLY"
	CodeOrphanNode            = "E_ORPHAN_NODE"
	CodeDialogueNoRoot        = "E_DIALOGUE_NO_ROOT"
	CodeHashCollision         = "E_HASH_COLLISION"
	CodeDuplicateRecord       = "E_DUPLICATE_RECORD"
	CodeVerifyMissing         = "E_VERIFY_MISSING"
	CodeVerifyUnexpected      = "E_VERIFY_UNEXPECTED"
	CodeVerifyDuplicate       = "E_VERIFY_DUPLICATE"
	CodePrevalTagUnregistered = "E_PREVAL_TAG_NOT_REGISTERED"
	CodePrevalFunctionNotFound ="E_PREVAL_FUNCTION_NOT_FOUND"
	CodeStoreFailure          = "E_STORE_FAILURE"
)

// Error is a single structured diagnostic.
type Error struct {
	Code         string   `json:"error_code"`
	ContextPath  string   `json:"context_path"`
	Message      string   `json:"message"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
	Severity     Severity `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ContextPath == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.ContextPath, e.Message)
}

// IsWarning reports whether the diagnostic is advisory only.
func (e *Error) IsWarning() bool { return e.Severity == SeverityWarning }

// New builds an error-severity diagnostic.
func New(code, contextPath, fix, format string, args ...any) *Error {
	return &Error{
		Code:         code,
		ContextPath:  contextPath,
		Message:      fmt.Sprintf(format, args...),
		SuggestedFix: fix,
	}
}

// Warn builds a warning-severity diagnostic.
func Warn(code, contextPath, fix, format string, args ...any) *Error {
	e := New(code, contextPath, fix, format, args...)
	e.Severity = SeverityWarning
	return e
}

// Path joins context path segments with '/', skipping empty ones.
func Path(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// Prefix returns a copy of every diagnostic in errs with prefix prepended to
// its context path.
func Prefix(prefix string, errs []*Error) []*Error {
	out := make([]*Error, 0, len(errs))
	for _, e := range errs {
		cp := *e
		cp.ContextPath = Path(prefix, e.ContextPath)
		out = append(out, &cp)
	}
	return out
}

// List is an ordered collection of diagnostics that can itself be returned as
// an error.
type List []*Error

// Error joins all messages, one per line.
func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the individual diagnostics to errors.Is and errors.As.
func (l List) Unwrap() []error {
	out := make([]error, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// HasErrors reports whether the list contains at least one error-severity
// entry.
func (l List) HasErrors() bool {
	for _, e := range l {
		if !e.IsWarning() {
			return true
		}
	}
	return false
}

// Err returns the list as an error, or nil when it holds no error-severity
// entries.
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// Collect walks err and returns every *Error found in it. A plain error is
// wrapped under fallbackCode.
func Collect(err error, fallbackCode, contextPath string) []*Error {
	if err == nil {
		return nil
	}
	var list List
	if errors.As(err, &list) {
		return list
	}
	var single *Error
	if errors.As(err, &single) {
		return []*Error{single}
	}
	return []*Error{{
		Code:         fallbackCode,
		ContextPath:  contextPath,
		Message:      err.Error(),
		SuggestedFix: "Check manifest definition and dependencies",
	}}
}
