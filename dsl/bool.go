package dsl

import (
	"context"
	"strings"

	"github.com/reoring/confdoc"
	js "github.com/reoring/confdoc/jsonschema"
)

var (
	trueTokens  = []string{"true", "t", "yes", "y", "on", "1"}
	falseTokens = []string{"false", "f", "no", "n", "off", "0"}
)

func matchToken(s string, tokens []string) bool {
	for _, t := range tokens {
		if s == t {
			return true
		}
	}
	return false
}

// StringBoolValidator converts textual boolean tokens.
type StringBoolValidator struct {
	trueValues  []string
	falseValues []string
}

// StringBool accepts true/t/yes/y/on/1 and false/f/no/n/off/0 in any case.
// Booleans pass through; empty input converts to false.
func StringBool() *StringBoolValidator {
	return &StringBoolValidator{trueValues: trueTokens, falseValues: falseTokens}
}

// Tokens replaces the accepted token lists (compared case-insensitively).
func (v *StringBoolValidator) Tokens(trueValues, falseValues []string) *StringBoolValidator {
	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	v.trueValues = lower(trueValues)
	v.falseValues = lower(falseValues)
	return v
}

func (v *StringBoolValidator) Name() string { return "StringBool" }

func (v *StringBoolValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Bool(false), nil
	}
	if b, ok := in.AsBool(); ok {
		return confdoc.Bool(b), nil
	}
	s, ok := scalarText(in)
	if !ok {
		return confdoc.Value{}, invalidType("boolean token", in)
	}
	s = strings.ToLower(s)
	switch {
	case matchToken(s, v.trueValues):
		return confdoc.Bool(true), nil
	case matchToken(s, v.falseValues):
		return confdoc.Bool(false), nil
	}
	return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidEnum, "value should be %q or %q", v.trueValues[0], v.falseValues[0])
}

func (v *StringBoolValidator) JSONSchemaHint(s *js.Schema) { s.Type = "boolean" }

type boolValidator struct{}

// Bool converts any candidate by truthiness: non-zero numbers and non-empty
// strings and collections are true, except the textual false tokens.
func Bool() confdoc.Validator { return boolValidator{} }

func (boolValidator) Name() string { return "Bool" }

func (boolValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Bool(false), nil
	}
	switch in.Kind() {
	case confdoc.KindBool:
		return in, nil
	case confdoc.KindInt, confdoc.KindFloat:
		f, _ := in.AsFloat()
		return confdoc.Bool(f != 0), nil
	case confdoc.KindString:
		s, _ := in.AsString()
		return confdoc.Bool(!matchToken(strings.ToLower(s), falseTokens)), nil
	}
	return confdoc.Bool(true), nil
}

func (boolValidator) JSONSchemaHint(s *js.Schema) { s.Type = "boolean" }
