package confdoc_test

import (
	"context"
	"io"
	"testing"

	"github.com/reoring/confdoc"
	"github.com/reoring/confdoc/dsl"
	"github.com/reoring/confdoc/source/gojson"
)

type countingDriver struct {
	confdoc.JSONDriver
	readers int
}

func (d *countingDriver) NewReader(r io.Reader) confdoc.Source {
	d.readers++
	return d.JSONDriver.NewReader(r)
}

func (d *countingDriver) Name() string { return "counting" }

func TestJSONDriverSwitch(t *testing.T) {
	t.Cleanup(confdoc.UseDefaultJSONDriver)
	if confdoc.JSONDriverName() != "encoding/json" {
		t.Fatalf("default driver = %s", confdoc.JSONDriverName())
	}

	s := confdoc.Define("s").Field("a", dsl.Int()).Default(0).MustBuild()
	drv := &countingDriver{JSONDriver: gojson.Driver()}
	confdoc.SetJSONDriver(drv)
	confdoc.SetJSONDriver(nil)
	if confdoc.JSONDriverName() != "counting" {
		t.Fatalf("driver = %s", confdoc.JSONDriverName())
	}

	doc, err := confdoc.LoadJSON(context.Background(), s, []byte(`{"a": 7}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a, _ := doc.Int("a"); a != 7 || drv.readers != 1 {
		t.Fatalf("a=%d readers=%d", a, drv.readers)
	}

	_, err = confdoc.LoadJSON(context.Background(), s, []byte(`{"a":1,"a":2}`))
	if iss, _ := confdoc.AsIssues(err); len(iss) == 0 || iss[0].Code != confdoc.CodeDuplicateKey {
		t.Fatalf("go-json driver should still enforce duplicates, got %v", err)
	}

	confdoc.UseDefaultJSONDriver()
	if confdoc.JSONDriverName() != "encoding/json" {
		t.Fatalf("driver not restored")
	}
}

func TestJSONDriver_GoJSONMaxBytes(t *testing.T) {
	t.Cleanup(confdoc.UseDefaultJSONDriver)
	confdoc.SetJSONDriver(gojson.Driver())
	s := confdoc.Define("s").Field("a").MustBuild()
	// go-json reports no offsets, so the reader itself is bounded.
	_, err := confdoc.LoadJSONReader(context.Background(), s, stringsReader(`{"a":"0123456789abcdef"}`), confdoc.LoadOpt{MaxBytes: 8})
	if iss, _ := confdoc.AsIssues(err); len(iss) == 0 || iss[0].Code != confdoc.CodeTruncated {
		t.Fatalf("expected truncated, got %v", err)
	}
}

type stringReader struct {
	s string
}

func stringsReader(s string) io.Reader { return &stringReader{s: s} }

// Read hands out one byte at a time to exercise streaming.
func (r *stringReader) Read(p []byte) (int, error) {
	if r.s == "" {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	p[0] = r.s[0]
	r.s = r.s[1:]
	return 1, nil
}
