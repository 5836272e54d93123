package confdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/reoring/confdoc/i18n"
	eng "github.com/reoring/confdoc/internal/engine"
)

// LoadYAML parses YAML text and loads it against s. Only the first document
// of a multi-document stream is used; empty input loads all defaults.
func LoadYAML(ctx context.Context, s *Schema, data []byte, opts ...LoadOpt) (*Document, error) {
	opt := lastOpt(opts)
	if s == nil {
		return nil, misuse("nil schema")
	}
	root, err := DecodeYAML(data, opt)
	if err != nil {
		return nil, err
	}
	return loadRoot(ctx, s, root, opt)
}

// DecodeYAML decodes the first document of data into a Value without loading
// it against a schema. Empty input decodes to null.
func DecodeYAML(data []byte, opts ...LoadOpt) (Value, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return Value{}, truncatedIssues(opt.MaxBytes)
	}
	root, iss := decodeYAML(data, opt)
	if len(iss) > 0 {
		return Value{}, iss
	}
	return root, nil
}

// LoadJSON parses JSON text and loads it against s. Blank input loads all
// defaults; data after the top-level value is a decode error.
func LoadJSON(ctx context.Context, s *Schema, data []byte, opts ...LoadOpt) (*Document, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return nil, truncatedIssues(opt.MaxBytes)
	}
	return LoadJSONReader(ctx, s, bytes.NewReader(data), opt)
}

// LoadJSONReader streams JSON from r through the active JSONDriver and loads
// it against s.
func LoadJSONReader(ctx context.Context, s *Schema, r io.Reader, opts ...LoadOpt) (*Document, error) {
	opt := lastOpt(opts)
	if s == nil {
		return nil, misuse("nil schema")
	}
	root, err := DecodeJSONReader(r, opt)
	if err != nil {
		return nil, err
	}
	return loadRoot(ctx, s, root, opt)
}

// DecodeJSON decodes JSON text into a Value without loading it against a
// schema. Blank input decodes to null.
func DecodeJSON(data []byte, opts ...LoadOpt) (Value, error) {
	opt := lastOpt(opts)
	if opt.MaxBytes > 0 && int64(len(data)) > opt.MaxBytes {
		return Value{}, truncatedIssues(opt.MaxBytes)
	}
	return DecodeJSONReader(bytes.NewReader(data), opt)
}

// DecodeJSONReader is DecodeJSON over a stream.
func DecodeJSONReader(r io.Reader, opts ...LoadOpt) (Value, error) {
	opt := lastOpt(opts)
	var cr *countingReader
	if opt.MaxBytes > 0 {
		cr = &countingReader{r: io.LimitReader(r, opt.MaxBytes+1)}
		r = cr
	}
	src := enforceSource(getJSONDriver().NewReader(r), opt, opt.Warn)
	raw, err := eng.DecodeDocument(src)
	if cr != nil && cr.n > opt.MaxBytes {
		return Value{}, truncatedIssues(opt.MaxBytes)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Null(), nil
		}
		return Value{}, jsonDecodeIssues(err)
	}
	root, err := ValueOf(raw)
	if err != nil {
		return Value{}, Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	return root, nil
}

// LoadMapping loads a native mapping against s. Values must be convertible
// with ValueOf.
func LoadMapping(ctx context.Context, s *Schema, m map[string]any, opts ...LoadOpt) (*Document, error) {
	if s == nil {
		return nil, misuse("nil schema")
	}
	root, err := ValueOf(m)
	if err != nil {
		return nil, Issues{{Code: CodeParseError, Message: err.Error(), Cause: err}}
	}
	return loadRoot(ctx, s, root, lastOpt(opts))
}

// LoadValue loads an already decoded mapping Value (or null) against s.
func LoadValue(ctx context.Context, s *Schema, v Value, opts ...LoadOpt) (*Document, error) {
	if s == nil {
		return nil, misuse("nil schema")
	}
	return loadRoot(ctx, s, v, lastOpt(opts))
}

func loadRoot(ctx context.Context, s *Schema, root Value, opt LoadOpt) (*Document, error) {
	var in map[string]Value
	switch root.Kind() {
	case KindNull:
		in = map[string]Value{}
	case KindMapping:
		in = root.m
	case KindDocument:
		in = root.doc.values
	default:
		return nil, Issues{{Code: CodeParseError, Message: fmt.Sprintf("document root must be a mapping, got %s", root.Kind()), Value: root}}
	}
	l := loader{opt: opt}
	doc, err := l.load(ctx, s, "", in)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// loader carries per-load options. r is set while default resolution is in
// progress and carries the schemas being resolved for cycle detection.
type loader struct {
	opt LoadOpt
	r   *resolver
}

func (l loader) load(ctx context.Context, s *Schema, path string, in map[string]Value) (*Document, error) {
	values := make(map[string]Value, len(s.keys))
	var iss Issues
	fail := func(more Issues) bool {
		iss = AppendIssues(iss, more...)
		return !l.opt.CollectAll
	}
	for _, name := range s.keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, fiss, err := l.field(ctx, s.fields[name], joinPath(path, name), in)
		if err != nil {
			return nil, err
		}
		if len(fiss) > 0 {
			if fail(fiss) {
				return nil, iss
			}
			continue
		}
		values[name] = v
	}
	if s.unknown == UnknownStrict {
		for _, k := range sortedKeys(in) {
			if _, known := s.fields[k]; known {
				continue
			}
			it := Issue{Path: joinPath(path, k), Code: CodeUnknownKey, Message: i18n.T(CodeUnknownKey, nil), Value: in[k], Hint: "schema " + s.name}
			if fail(Issues{it}) {
				return nil, iss
			}
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return &Document{schema: s, values: values}, nil
}

// field resolves one declared field against the input mapping.
func (l loader) field(ctx context.Context, f *Field, path string, in map[string]Value) (Value, Issues, error) {
	d := f.resolved(l.r)
	if hasMisuse(d.issues) {
		return Value{}, rebaseParent(path, f.name, d.issues), nil
	}
	raw, present := in[f.name]
	if present && raw.IsNull() && (d.required || d.nested != nil) {
		present = false
	}
	if !present {
		switch {
		case d.required:
			return Value{}, Issues{{Path: path, Code: CodeRequired, Message: i18n.T(CodeRequired, nil)}}, nil
		case len(d.issues) > 0:
			return Value{}, rebaseParent(path, f.name, d.issues), nil
		}
		return d.value.Clone(), nil, nil
	}
	if d.nested != nil {
		var sub map[string]Value
		switch raw.Kind() {
		case KindMapping:
			sub = raw.m
		case KindDocument:
			if raw.doc.schema == d.nested {
				return raw.Clone(), nil, nil
			}
			sub = raw.doc.values
		default:
			return Value{}, Issues{{Path: path, Code: CodeInvalidType, Message: i18n.T(CodeInvalidType, nil), Value: raw, Hint: "expected mapping for " + d.nested.name}}, nil
		}
		doc, err := l.load(ctx, d.nested, path, sub)
		if err != nil {
			if iss, ok := AsIssues(err); ok {
				return Value{}, iss, nil
			}
			return Value{}, nil, err
		}
		return DocumentValue(doc), nil, nil
	}
	v, iss := f.chain.Apply(ctx, path, raw)
	if len(iss) > 0 {
		return Value{}, iss, nil
	}
	return v, nil, nil
}

// rebaseParent moves issues recorded relative to a field name onto the
// field's full path.
func rebaseParent(path, name string, iss Issues) Issues {
	parent := path[:len(path)-len(name)]
	if n := len(parent); n > 0 && parent[n-1] == '.' {
		parent = parent[:n-1]
	}
	return rebase(parent, iss)
}

func hasMisuse(iss Issues) bool {
	for _, it := range iss {
		if it.Code == CodeSchemaMisuse {
			return true
		}
	}
	return false
}

func truncatedIssues(limit int64) Issues {
	return Issues{{Code: CodeTruncated, Message: i18n.T(CodeTruncated, nil), Params: map[string]any{"maxBytes": limit}}}
}

func jsonDecodeIssues(err error) Issues {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{{Path: ie.Path, Code: ie.Code, Message: ie.Message, Cause: err}}
	}
	return Issues{{Code: CodeParseError, Message: i18n.T(CodeParseError, nil) + ": " + err.Error(), Cause: err}}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
