package dsl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/reoring/confdoc"
	g "github.com/reoring/confdoc/dsl"
)

func loadField(t *testing.T, def any, yaml string, vs ...confdoc.Validator) (confdoc.Value, error) {
	t.Helper()
	s := confdoc.Define("test").Field("a", vs...).Default(def).MustBuild()
	doc, err := confdoc.LoadYAML(context.Background(), s, []byte(yaml))
	if err != nil {
		return confdoc.Value{}, err
	}
	v, _ := doc.Get("a")
	return v, nil
}

func TestFields_DefaultsSkipValidators(t *testing.T) {
	v, err := loadField(t, 1, "", g.ConfirmType(confdoc.KindInt))
	if err != nil || !v.Equal(confdoc.Int(1)) {
		t.Fatalf("ConfirmType default = %#v, %v", v, err)
	}
	if _, err := loadField(t, 1, "a: notanint\n", g.ConfirmType(confdoc.KindInt)); !errors.Is(err, confdoc.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", err)
	}

	v, err = loadField(t, 1, "", g.Constant("XYZ"))
	if err != nil || !v.Equal(confdoc.Int(1)) {
		t.Fatalf("Constant default = %#v, %v", v, err)
	}
	v, err = loadField(t, 1, "a: abc\n", g.Constant("XYZ"))
	if s, _ := v.AsString(); err != nil || s != "XYZ" {
		t.Fatalf("Constant = %#v, %v", v, err)
	}

	v, err = loadField(t, "one", "", g.IndexListConverter("zero", "one", "two", "three"))
	if s, _ := v.AsString(); err != nil || s != "one" {
		t.Fatalf("IndexListConverter default = %#v, %v", v, err)
	}
	v, err = loadField(t, "one", "a: 2\n", g.IndexListConverter("zero", "one", "two", "three"))
	if s, _ := v.AsString(); err != nil || s != "two" {
		t.Fatalf("IndexListConverter = %#v, %v", v, err)
	}
}

func TestFields_NoDefaultRequiresInput(t *testing.T) {
	if _, err := loadField(t, confdoc.NoDefault, "", g.OneOf(1, 2, 3)); !errors.Is(err, confdoc.ErrRequired) {
		t.Fatalf("expected required failure, got %v", err)
	}
	v, err := loadField(t, confdoc.NoDefault, "a: 2\n", g.OneOf(1, 2, 3))
	if err != nil || !v.Equal(confdoc.Int(2)) {
		t.Fatalf("OneOf = %#v, %v", v, err)
	}
}

func TestFields_StripFieldFromYAML(t *testing.T) {
	v, err := loadField(t, nil, "a:\n  test: 1\n  b: 2\n", g.StripField("test"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := confdoc.MustValueOf([]any{1, map[string]any{"b": 2}})
	if !v.Equal(want) {
		t.Fatalf("got %#v", v)
	}
}

func TestFields_MACAddressFromYAML(t *testing.T) {
	v, err := loadField(t, "", "a: 00:11:22:33:44:55\n", g.MACAddress())
	if s, _ := v.AsString(); err != nil || s != "001122334455" {
		t.Fatalf("MACAddress = %#v, %v", v, err)
	}
}
