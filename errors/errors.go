package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode Phase = "decode" // bytes to structure
	PhaseEncode Phase = "encode" // structure to bytes
	PhaseVisit  Phase = "visit"  // traversal
	PhaseConfig Phase = "config" // feature configuration
)

// Kind categorizes the error
type Kind string

const (
	KindTruncated          Kind = "truncated"
	KindOverflow           Kind = "overflow"
	KindInvalidEncoding    Kind = "invalid_encoding"
	KindUnknownTag         Kind = "unknown_tag"
	KindBadMagic           Kind = "bad_magic"
	KindUnsupportedVersion Kind = "unsupported_version"
	KindEncode             Kind = "encode"
	KindConflict           Kind = "conflict"
)

// NoOffset marks an error that is not tied to an input position.
const NoOffset = -1

// Error is the structured error type used throughout the codec
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Offset int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(JoinPath(e.Path))
	}

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset 0x%x)", e.Offset)
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

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Kind-only sentinels for use with errors.Is.
var (
	ErrTruncated          = &Error{Kind: KindTruncated, Offset: NoOffset}
	ErrOverflow           = &Error{Kind: KindOverflow, Offset: NoOffset}
	ErrInvalidEncoding    = &Error{Kind: KindInvalidEncoding, Offset: NoOffset}
	ErrUnknownTag         = &Error{Kind: KindUnknownTag, Offset: NoOffset}
	ErrBadMagic           = &Error{Kind: KindBadMagic, Offset: NoOffset}
	ErrUnsupportedVersion = &Error{Kind: KindUnsupportedVersion, Offset: NoOffset}
	ErrEncode             = &Error{Kind: KindEncode, Offset: NoOffset}
	ErrConflict           = &Error{Kind: KindConflict, Offset: NoOffset}
)

// KindOf returns the kind of the first structured error in err's chain,
// or an empty Kind if there is none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// WithPath prepends a path segment to err. Structured errors gain the segment
// in place; other errors are wrapped with the segment as a prefix.
func WithPath(err error, segment string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		e.Path = append([]string{segment}, e.Path...)
		return err
	}
	return fmt.Errorf("%s: %w", segment, err)
}

// Index formats a sequence position as a path segment.
func Index(i int) string {
	return fmt.Sprintf("[%d]", i)
}

// JoinPath renders path segments, attaching index segments without a dot.
func JoinPath(path []string) string {
	var b strings.Builder
	for i, seg := range path {
		if i > 0 && !strings.HasPrefix(seg, "[") {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: NoOffset,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the input position
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
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

// Truncated creates an error for input that ended mid-value
func Truncated(off int, want, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncated,
		Offset: off,
		Detail: fmt.Sprintf("need %d bytes, have %d", want, have),
	}
}

// Overflow creates an error for an integer wider than its target
func Overflow(off int, targetType string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindOverflow,
		Offset: off,
		Detail: fmt.Sprintf("LEB128 value overflows %s", targetType),
	}
}

// InvalidEncoding creates an error for malformed input
func InvalidEncoding(off int, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidEncoding,
		Offset: off,
		Detail: detail,
	}
}

// UnknownTag creates an error for a discriminant outside the active table
func UnknownTag(off int, family string, tag uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownTag,
		Offset: off,
		Value:  tag,
		Detail: fmt.Sprintf("unknown %s tag 0x%x", family, tag),
	}
}

// BadMagic creates a header magic mismatch error
func BadMagic(got []byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadMagic,
		Offset: 0,
		Value:  got,
		Detail: fmt.Sprintf("bad magic %x", got),
	}
}

// UnsupportedVersion creates a header version mismatch error
func UnsupportedVersion(got uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnsupportedVersion,
		Offset: 4,
		Value:  got,
		Detail: fmt.Sprintf("unsupported version %d", got),
	}
}

// Encode creates an error for a value that cannot be represented
func Encode(detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindEncode,
		Offset: NoOffset,
		Detail: detail,
	}
}

// Conflict creates an error for two definitions claiming the same tag
func Conflict(family string, tag uint32, first, second string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindConflict,
		Offset: NoOffset,
		Value:  tag,
		Detail: fmt.Sprintf("%s tag 0x%x claimed by both %s and %s", family, tag, first, second),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: NoOffset,
		Detail: detail,
		Cause:  cause,
	}
}
