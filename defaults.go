package confdoc

import (
	"context"
	"fmt"
	"strings"
)

// fieldDefault is the memoized outcome of a field's default producer.
type fieldDefault struct {
	value    Value   // resolved default; a Document value for nested fields
	required bool    // producer returned NoDefault
	nested   *Schema // non-nil when the producer returned a Schema
	issues   Issues  // resolution failure (cycle, unsupported value, required nested field)
}

type resolver struct {
	stack []*Schema
}

func (r *resolver) push(s *Schema) *resolver {
	st := make([]*Schema, len(r.stack), len(r.stack)+1)
	copy(st, r.stack)
	return &resolver{stack: append(st, s)}
}

func (r *resolver) contains(s *Schema) bool {
	for _, x := range r.stack {
		if x == s {
			return true
		}
	}
	return false
}

func (r *resolver) trail(last *Schema) string {
	names := make([]string, 0, len(r.stack)+1)
	for _, s := range r.stack {
		names = append(names, s.name)
	}
	names = append(names, last.name)
	return strings.Join(names, " -> ")
}

// resolved returns the memoized default, running the producer on first use.
// No lock is held while nested schemas are resolved, so producers may call
// back into Default or the loaders. Concurrent first uses may assemble the
// same nested Document twice; the first stored result wins.
func (f *Field) resolved(r *resolver) *fieldDefault {
	if d := f.def.Load(); d != nil {
		return d
	}
	if r == nil {
		r = &resolver{}
	}
	d := f.resolve(r)
	if f.def.CompareAndSwap(nil, d) {
		return d
	}
	return f.def.Load()
}

// produce runs the producer at most once.
func (f *Field) produce() any {
	f.once.Do(func() { f.raw = f.producer() })
	return f.raw
}

func (f *Field) resolve(r *resolver) *fieldDefault {
	if f.owner != nil {
		r = r.push(f.owner)
	}
	raw := f.produce()
	switch t := raw.(type) {
	case noDefault:
		return &fieldDefault{required: true}
	case *Schema:
		if t == nil {
			return &fieldDefault{issues: singleIssue(CodeSchemaMisuse, f.name, "default producer returned a nil schema")}
		}
		if len(f.chain) > 0 {
			return &fieldDefault{nested: t, issues: singleIssue(CodeSchemaMisuse, f.name, "validators are not applied to nested schema "+t.name)}
		}
		if r.contains(t) {
			return &fieldDefault{nested: t, issues: singleIssue(CodeSchemaMisuse, f.name, "schema cycle: "+r.trail(t))}
		}
		doc, iss := t.defaults(r)
		if len(iss) > 0 {
			return &fieldDefault{nested: t, issues: rebase(f.name, iss)}
		}
		return &fieldDefault{nested: t, value: DocumentValue(doc)}
	}
	v, err := ValueOf(raw)
	if err != nil {
		return &fieldDefault{issues: Issues{{Path: f.name, Code: CodeSchemaMisuse, Message: fmt.Sprintf("unsupported default: %v", err), Cause: err}}}
	}
	return &fieldDefault{value: v}
}

// defaults assembles a Document of s from defaults alone.
func (s *Schema) defaults(r *resolver) (*Document, Issues) {
	l := loader{opt: LoadOpt{}, r: r}
	doc, err := l.load(context.Background(), s, "", map[string]Value{})
	if err != nil {
		if iss, ok := AsIssues(err); ok {
			return nil, iss
		}
		return nil, Issues{{Code: CodeSchemaMisuse, Message: err.Error(), Cause: err}}
	}
	return doc, nil
}

// Default returns a Document of s built purely from defaults. It fails when
// s has a required field or a default cannot be resolved.
func Default(s *Schema) (*Document, error) {
	if s == nil {
		return nil, misuse("nil schema")
	}
	return loadRoot(context.Background(), s, Null(), LoadOpt{})
}

// MustDefault is like Default but panics on error.
func MustDefault(s *Schema) *Document {
	d, err := Default(s)
	if err != nil {
		panic(err)
	}
	return d
}
