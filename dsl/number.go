package dsl

import (
	"context"
	"math"
	"strconv"

	"github.com/reoring/confdoc"
	js "github.com/reoring/confdoc/jsonschema"
)

// IntValidator converts candidates to integers with optional bounds.
type IntValidator struct {
	min, max       int64
	hasMin, hasMax bool
}

// Int accepts integers, integral floats and decimal integer strings.
func Int() *IntValidator { return &IntValidator{} }

// Min sets an inclusive lower bound.
func (v *IntValidator) Min(n int64) *IntValidator { v.min, v.hasMin = n, true; return v }

// Max sets an inclusive upper bound.
func (v *IntValidator) Max(n int64) *IntValidator { v.max, v.hasMax = n, true; return v }

func (v *IntValidator) Name() string { return "Int" }

func (v *IntValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	var n int64
	switch in.Kind() {
	case confdoc.KindInt, confdoc.KindFloat:
		i, ok := in.AsInt()
		if !ok {
			return confdoc.Value{}, confdoc.Failf(confdoc.CodeInvalidType, "please enter an integer value")
		}
		n = i
	case confdoc.KindString:
		s, _ := in.AsString()
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return confdoc.Value{}, &confdoc.Failure{Code: confdoc.CodeInvalidType, Message: "please enter an integer value", Cause: err}
		}
		n = i
	default:
		return confdoc.Value{}, invalidType("integer", in)
	}
	if v.hasMin && n < v.min {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeTooSmall, "please enter a number that is %d or greater", v.min).With("min", v.min).With("got", n)
	}
	if v.hasMax && n > v.max {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeTooBig, "please enter a number that is %d or smaller", v.max).With("max", v.max).With("got", n)
	}
	return confdoc.Int(n), nil
}

func (v *IntValidator) JSONSchemaHint(s *js.Schema) {
	s.Type = "integer"
	if v.hasMin {
		s.Minimum = js.Float(float64(v.min))
	}
	if v.hasMax {
		s.Maximum = js.Float(float64(v.max))
	}
}

// NumberValidator converts candidates to numbers, keeping integers integral.
type NumberValidator struct {
	min, max       float64
	hasMin, hasMax bool
}

// Number accepts ints, floats and numeric strings. Integral text stays an
// integer ("1" -> 1) while other text becomes a float ("0.56" -> 0.56).
func Number() *NumberValidator { return &NumberValidator{} }

// Min sets an inclusive lower bound.
func (v *NumberValidator) Min(f float64) *NumberValidator { v.min, v.hasMin = f, true; return v }

// Max sets an inclusive upper bound.
func (v *NumberValidator) Max(f float64) *NumberValidator { v.max, v.hasMax = f, true; return v }

func (v *NumberValidator) Name() string { return "Number" }

func (v *NumberValidator) Convert(_ context.Context, in confdoc.Value) (confdoc.Value, error) {
	in, empty := prepare(in)
	if empty {
		return confdoc.Null(), nil
	}
	out := in
	switch in.Kind() {
	case confdoc.KindInt, confdoc.KindFloat:
	case confdoc.KindString:
		s, _ := in.AsString()
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			out = confdoc.Int(i)
			break
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return confdoc.Value{}, &confdoc.Failure{Code: confdoc.CodeInvalidType, Message: "please enter a number", Cause: err}
		}
		out = confdoc.Float(f)
	default:
		return confdoc.Value{}, invalidType("number", in)
	}
	f, _ := out.AsFloat()
	if v.hasMin && f < v.min {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeTooSmall, "please enter a number that is %g or greater", v.min).With("min", v.min).With("got", f)
	}
	if v.hasMax && f > v.max {
		return confdoc.Value{}, confdoc.Failf(confdoc.CodeTooBig, "please enter a number that is %g or smaller", v.max).With("max", v.max).With("got", f)
	}
	return out, nil
}

func (v *NumberValidator) JSONSchemaHint(s *js.Schema) {
	s.Type = "number"
	if v.hasMin {
		s.Minimum = js.Float(v.min)
	}
	if v.hasMax {
		s.Maximum = js.Float(v.max)
	}
}
