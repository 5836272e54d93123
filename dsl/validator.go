package dsl

import (
	"context"
	"strings"

	"github.com/reoring/confdoc"
)

// prepare trims string candidates and reports whether the candidate is empty
// (null, "", or an empty sequence or mapping). Most validators return their
// empty value for empty candidates without further checks.
func prepare(v confdoc.Value) (confdoc.Value, bool) {
	if s, ok := v.AsString(); ok {
		t := strings.TrimSpace(s)
		if t != s {
			v = confdoc.String(t)
		}
	}
	return v, v.IsEmpty()
}

// scalarText renders a scalar candidate as text. Sequences, mappings and
// documents are rejected.
func scalarText(v confdoc.Value) (string, bool) {
	switch v.Kind() {
	case confdoc.KindString, confdoc.KindInt, confdoc.KindFloat, confdoc.KindBool:
		return v.Text(), true
	}
	return "", false
}

func invalidType(expected string, got confdoc.Value) *confdoc.Failure {
	return confdoc.Failf(confdoc.CodeInvalidType, "expected %s, got %s", expected, got.Kind()).With("expected", expected)
}

// Func wraps fn as a named validator. fn receives the candidate untouched.
func Func(name string, fn func(ctx context.Context, v confdoc.Value) (confdoc.Value, error)) confdoc.Validator {
	return confdoc.ValidatorFunc(name, fn)
}
