package engine

import (
	"strconv"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
// Path is dotted (a.b[0]); empty means the document root.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives tolerated issues (DupWarn duplicates). Fatal issues
	// are returned as IssueError instead.
	IssueSink func(SimpleIssue)
	// FailFast turns tolerated issues into errors.
	FailFast bool
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes while tokens stream through.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcer{inner: inner, opt: opt}
}

type enforcer struct {
	inner TokenSource
	opt   EnforceOptions
	stack []scope
}

// scope is one open object or array.
type scope struct {
	object bool
	path   string
	keys   map[string]struct{}
	key    string // last key seen in an object
	next   int    // next array index
}

func (e *enforcer) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		p := e.valuePath()
		sc := scope{object: tok.Kind == KindBeginObject, path: p}
		if sc.object {
			sc.keys = map[string]struct{}{}
		}
		e.stack = append(e.stack, sc)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, IssueError{SimpleIssue{Code: "parse_error", Path: p, Message: "max depth exceeded"}}
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
	case KindKey:
		if n := len(e.stack); n > 0 && e.stack[n-1].object {
			top := &e.stack[n-1]
			if _, dup := top.keys[tok.String]; dup && e.opt.OnDuplicate != DupIgnore {
				si := SimpleIssue{Code: "duplicate_key", Path: joinKey(top.path, tok.String), Message: "key " + strconv.Quote(tok.String) + " duplicated"}
				if e.opt.OnDuplicate == DupError || e.opt.FailFast {
					return Token{}, IssueError{si}
				}
				if e.opt.IssueSink != nil {
					e.opt.IssueSink(si)
				}
			}
			top.keys[tok.String] = struct{}{}
			top.key = tok.String
		}
	default:
		e.valuePath()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off > e.opt.MaxBytes {
			return Token{}, IssueError{SimpleIssue{Code: "truncated", Message: "max bytes exceeded"}}
		}
	}
	return tok, nil
}

// valuePath returns the path of the value that starts with the current token
// and advances the enclosing array index.
func (e *enforcer) valuePath() string {
	n := len(e.stack)
	if n == 0 {
		return ""
	}
	top := &e.stack[n-1]
	if top.object {
		return joinKey(top.path, top.key)
	}
	p := top.path + "[" + strconv.Itoa(top.next) + "]"
	top.next++
	return p
}

func joinKey(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func (e *enforcer) Location() int64 { return e.inner.Location() }
