package confdoc

import (
	"context"
	"errors"
	"fmt"

	"github.com/reoring/confdoc/i18n"
)

// Validator converts and validates a single candidate value. Implementations
// must be pure: the same input always yields the same output or failure.
type Validator interface {
	Name() string
	Convert(ctx context.Context, v Value) (Value, error)
}

type funcValidator struct {
	name string
	fn   func(context.Context, Value) (Value, error)
}

func (f funcValidator) Name() string { return f.name }
func (f funcValidator) Convert(ctx context.Context, v Value) (Value, error) {
	return f.fn(ctx, v)
}

// ValidatorFunc adapts a function into a named Validator.
func ValidatorFunc(name string, fn func(context.Context, Value) (Value, error)) Validator {
	return funcValidator{name: name, fn: fn}
}

// Failure is the error validators return to reject a candidate. Code is one
// of the Code* constants; other errors are reported as CodeCustom.
type Failure struct {
	Code    string
	Message string
	Hint    string
	Params  map[string]any
	Cause   error
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	return i18n.T(f.Code, nil)
}

func (f *Failure) Unwrap() error { return f.Cause }

// Fail builds a Failure with a localized default message.
func Fail(code string) *Failure { return &Failure{Code: code, Message: i18n.T(code, nil)} }

// Failf builds a Failure with a formatted message.
func Failf(code, format string, args ...any) *Failure {
	return &Failure{Code: code, Message: fmt.Sprintf(format, args...)}
}

// With attaches a structured parameter and returns f.
func (f *Failure) With(key string, v any) *Failure {
	if f.Params == nil {
		f.Params = map[string]any{}
	}
	f.Params[key] = v
	return f
}

// Chain is an ordered list of validators. Each validator receives the output
// of the previous one and the first failure stops the chain.
type Chain []Validator

// NewChain copies vs into a Chain.
func NewChain(vs ...Validator) Chain {
	return append(Chain(nil), vs...)
}

// Wrap returns a new chain with outer appended, so that outer sees the
// output of every validator already in c.
func (c Chain) Wrap(outer Validator) Chain {
	out := make(Chain, 0, len(c)+1)
	out = append(out, c...)
	return append(out, outer)
}

// Names lists the validator names in application order.
func (c Chain) Names() []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = v.Name()
	}
	return out
}

// Apply runs the chain over raw. Failures are reported at path and carry the
// raw candidate and the failing validator name.
func (c Chain) Apply(ctx context.Context, path string, raw Value) (Value, Issues) {
	cur := raw
	for _, v := range c {
		out, err := v.Convert(ctx, cur)
		if err != nil {
			return Value{}, failureIssues(path, raw, v.Name(), err)
		}
		cur = out
	}
	return cur, nil
}

func failureIssues(path string, raw Value, rule string, err error) Issues {
	if iss, ok := AsIssues(err); ok {
		out := make(Issues, 0, len(iss))
		for _, it := range iss {
			it.Path = joinPath(path, it.Path)
			if it.Rule == "" {
				it.Rule = rule
			}
			out = append(out, it)
		}
		return out
	}
	it := Issue{Path: path, Code: CodeCustom, Message: err.Error(), Value: raw, Rule: rule, Cause: err}
	var f *Failure
	if errors.As(err, &f) {
		it.Code = f.Code
		it.Message = f.Error()
		it.Hint = f.Hint
		it.Params = f.Params
		if f.Cause != nil {
			it.Cause = f.Cause
		}
	}
	return Issues{it}
}
