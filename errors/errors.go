package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseAlloc  Phase = "alloc"  // arena allocation and free
	PhaseAccess Phase = "access" // range reads and writes
	PhaseLayout Phase = "layout" // record type construction
	PhaseAttach Phase = "attach" // attaching to bytes from another agent
	PhaseSync   Phase = "sync"   // lock and signal operations
	PhaseHost   Phase = "host"   // host arena and module export wiring
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds       Kind = "out_of_bounds"
	KindMisaligned        Kind = "misaligned"
	KindAllocation        Kind = "allocation"
	KindLocationMismatch  Kind = "location_mismatch"
	KindDuplicateField    Kind = "duplicate_field"
	KindFieldUnknown      Kind = "field_unknown"
	KindSizeMismatch      Kind = "size_mismatch"
	KindPrimitiveContract Kind = "primitive_contract"
	KindForeignFree       Kind = "foreign_free"
	KindUnsupported       Kind = "unsupported"
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	ArenaID string
	Detail  string
	Ptr     uint32
	Size    uint32
	HasLoc  bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.ArenaID != "" {
		b.WriteString(" arena=")
		b.WriteString(e.ArenaID)
	}
	if e.HasLoc {
		fmt.Fprintf(&b, " [0x%x,+%d)", e.Ptr, e.Size)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Arena sets the arena id
func (b *Builder) Arena(id string) *Builder {
	b.err.ArenaID = id
	return b
}

// Ptr sets the offending address
func (b *Builder) Ptr(ptr uint32) *Builder {
	b.err.Ptr = ptr
	b.err.HasLoc = true
	return b
}

// Size sets the offending length
func (b *Builder) Size(size uint32) *Builder {
	b.err.Size = size
	b.err.HasLoc = true
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// OutOfBounds creates an out-of-bounds error for an access at [ptr, ptr+size)
// against a buffer of length bufLen.
func OutOfBounds(phase Phase, ptr, size, bufLen uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Ptr:    ptr,
		Size:   size,
		HasLoc: true,
		Detail: fmt.Sprintf("range end %d exceeds buffer length %d", uint64(ptr)+uint64(size), bufLen),
	}
}

// Misaligned creates an alignment error
func Misaligned(phase Phase, ptr, align uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMisaligned,
		Ptr:    ptr,
		HasLoc: true,
		Detail: fmt.Sprintf("address 0x%x is not %d-byte aligned", ptr, align),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(size, align, bufLen uint32) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d, buffer length %d)", size, align, bufLen),
	}
}

// LocationMismatch creates a cross-arena resolution error
func LocationMismatch(wantID, gotID string) *Error {
	return &Error{
		Phase:   PhaseAttach,
		Kind:    KindLocationMismatch,
		ArenaID: gotID,
		Detail:  fmt.Sprintf("location belongs to arena %q, resolved against %q", wantID, gotID),
	}
}

// DuplicateField creates a layout definition error
func DuplicateField(name string) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindDuplicateField,
		Detail: fmt.Sprintf("duplicate field %q", name),
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(name string) *Error {
	return &Error{
		Phase:  PhaseAccess,
		Kind:   KindFieldUnknown,
		Detail: fmt.Sprintf("unknown field %q", name),
	}
}

// SizeMismatch creates an attach size error
func SizeMismatch(want, got uint32) *Error {
	return &Error{
		Phase:  PhaseAttach,
		Kind:   KindSizeMismatch,
		Detail: fmt.Sprintf("range size %d does not match type size %d", got, want),
	}
}

// ForeignFree flags a free of a range this arena wrapper never allocated.
// The free still proceeds; the error is a diagnostic value for logging.
func ForeignFree(arenaID string, ptr uint32) *Error {
	return &Error{
		Phase:   PhaseAlloc,
		Kind:    KindForeignFree,
		ArenaID: arenaID,
		Ptr:     ptr,
		HasLoc:  true,
		Detail:  "free of a range not allocated through this wrapper",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// PrimitiveContract builds the fatal error raised (via panic) when an atomic
// wait reports an outcome the primitive's contract rules out, such as a
// timeout on an unbounded wait.
func PrimitiveContract(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseSync,
		Kind:   KindPrimitiveContract,
		Detail: fmt.Sprintf(detail, args...),
	}
}
