package confdoc

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeParseError    = "parse_error"
	CodeDuplicateKey  = "duplicate_key"
	CodeTruncated     = "truncated"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeSchemaMisuse  = "schema_misuse"
	CodeInvalidType   = "invalid_type"
	CodeInvalidFormat = "invalid_format"
	CodeInvalidEnum   = "invalid_enum"
	CodePattern       = "pattern"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeEmpty         = "empty"
	// CodeCustom is used for validator errors that do not carry a code.
	CodeCustom = "custom"
)

// Error kinds. Issues match these through errors.Is.
var (
	// ErrDecode indicates the input text is not valid YAML/JSON (or the mapping
	// holds values that cannot be represented).
	ErrDecode = errors.New("confdoc: decode error")
	// ErrRequired indicates a field without a default was absent from input.
	ErrRequired = errors.New("confdoc: required field missing")
	// ErrValidation indicates a validator rejected a candidate value.
	ErrValidation = errors.New("confdoc: validation failure")
	// ErrUnknownField indicates the input carried a key the schema does not declare.
	ErrUnknownField = errors.New("confdoc: unknown field")
	// ErrSchemaMisuse indicates a programming error in schema declaration.
	ErrSchemaMisuse = errors.New("confdoc: schema misuse")
)

// Issue represents a single load or declaration failure.
type Issue struct {
	Path    string // Dotted field path (for example: http.port). Empty for the document root.
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Value is the raw candidate that was rejected, when there was one.
	Value Value
	// Rule records the validator name that produced this issue.
	Rule string
	// Line and Column locate decode errors in YAML input (0 when unknown).
	Line   int
	Column int
	// Params carries structured parameters (e.g., {"min":1, "max":10, "got":42})
	// for i18n and observability.
	Params map[string]any
}

// Kind maps the issue code onto one of the error kind sentinels.
func (it Issue) Kind() error {
	switch it.Code {
	case CodeParseError, CodeDuplicateKey, CodeTruncated:
		return ErrDecode
	case CodeRequired:
		return ErrRequired
	case CodeUnknownKey:
		return ErrUnknownField
	case CodeSchemaMisuse:
		return ErrSchemaMisuse
	default:
		return ErrValidation
	}
}

// String renders the issue as "path: message".
func (it Issue) String() string {
	b := &strings.Builder{}
	if it.Path != "" {
		b.WriteString(it.Path)
		b.WriteString(": ")
	}
	msg := it.Message
	if msg == "" {
		msg = it.Code
	}
	b.WriteString(msg)
	if it.Rule != "" {
		fmt.Fprintf(b, " (%s)", it.Rule)
	}
	if it.Line > 0 {
		fmt.Fprintf(b, " at line %d", it.Line)
		if it.Column > 0 {
			fmt.Fprintf(b, ", column %d", it.Column)
		}
	}
	return b.String()
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether any issue belongs to the target kind.
func (iss Issues) Is(target error) bool {
	for _, it := range iss {
		if it.Kind() == target {
			return true
		}
	}
	return false
}

// Unwrap exposes the causes of the issues to errors.Is / errors.As.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// First returns the first issue, or the zero Issue when there is none.
func (iss Issues) First() Issue {
	if len(iss) == 0 {
		return Issue{}
	}
	return iss[0]
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func singleIssue(code, path, msg string) Issues {
	return AppendIssues(nil, Issue{Code: code, Path: path, Message: msg})
}

func misuse(format string, args ...any) Issues {
	return singleIssue(CodeSchemaMisuse, "", fmt.Sprintf(format, args...))
}
