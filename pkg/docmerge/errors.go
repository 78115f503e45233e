package docmerge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies merge failures and warnings.
type ErrorKind int

const (
	// MalformedPackage: a required part is missing or fails to parse. Fatal.
	MalformedPackage ErrorKind = iota + 1
	// BoundaryNotFound: the cover has no section break; the body is appended at the end.
	BoundaryNotFound
	// RelationshipTargetMissing: a relationship points at a part that was not copied.
	RelationshipTargetMissing
	// InvariantViolation: the merged package would be invalid. Fatal, checked before assembly.
	InvariantViolation
	// AssemblyError: the output archive could not be serialized. Fatal.
	AssemblyError
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedPackage:
		return "malformed package"
	case BoundaryNotFound:
		return "boundary not found"
	case RelationshipTargetMissing:
		return "relationship target missing"
	case InvariantViolation:
		return "invariant violation"
	case AssemblyError:
		return "assembly error"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind abort a merge.
func (k ErrorKind) Fatal() bool {
	return k != BoundaryNotFound && k != RelationshipTargetMissing
}

// MergeError is the error type returned by every stage of the merge pipeline. Non-fatal kinds
// are also used as warnings in Report.Warnings.
type MergeError struct {
	Kind    ErrorKind
	Part    string
	Message string
	Cause   error
}

func (e *MergeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Part != "" {
		fmt.Fprintf(&b, " in '%s'", e.Part)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *MergeError) Unwrap() error {
	return e.Cause
}

// Is matches another *MergeError of the same kind, so the Err* sentinels work with errors.Is.
func (e *MergeError) Is(target error) bool {
	t, ok := target.(*MergeError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Part == "" || t.Part == e.Part)
}

// Sentinels for errors.Is.
var (
	ErrMalformedPackage          = &MergeError{Kind: MalformedPackage}
	ErrBoundaryNotFound          = &MergeError{Kind: BoundaryNotFound}
	ErrRelationshipTargetMissing = &MergeError{Kind: RelationshipTargetMissing}
	ErrInvariantViolation        = &MergeError{Kind: InvariantViolation}
	ErrAssemblyError             = &MergeError{Kind: AssemblyError}
)

// NewMergeError creates a merge error
func NewMergeError(kind ErrorKind, part, message string, cause error) *MergeError {
	return &MergeError{
		Kind:    kind,
		Part:    part,
		Message: message,
		Cause:   cause,
	}
}

func malformed(part, message string, cause error) error {
	return NewMergeError(MalformedPackage, part, message, cause)
}

// IsKind reports whether err is, or wraps, a MergeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var me *MergeError
	if errors.As(err, &me) {
		return me.Kind == kind
	}
	return false
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Addf adds a formatted error to the collection
func (m *MultiError) Addf(format string, args ...interface{}) {
	m.errors = append(m.errors, fmt.Errorf(format, args...))
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns the collected errors
func (m *MultiError) Errors() []error {
	return m.errors
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// ContextError adds context to an existing error
type ContextError struct {
	Operation string
	Context   map[string]interface{}
	Cause     error
}

func (e *ContextError) Error() string {
	var contextParts []string
	for k, v := range e.Context {
		contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
	}

	if len(contextParts) > 0 {
		return fmt.Sprintf("%s [%s]: %v", e.Operation, strings.Join(contextParts, ", "), e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Cause)
}

func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WithContext wraps an error with additional context
func WithContext(err error, operation string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &ContextError{
		Operation: operation,
		Context:   context,
		Cause:     err,
	}
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}
