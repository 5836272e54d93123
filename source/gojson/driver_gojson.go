// Package gojson provides a JSON driver backed by goccy/go-json.
package gojson

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/confdoc"
	eng "github.com/reoring/confdoc/internal/engine"
)

// Driver returns a confdoc.JSONDriver backed by goccy/go-json.
func Driver() confdoc.JSONDriver { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) NewReader(r io.Reader) confdoc.Source {
	return confdoc.SourceFromEngine(NewReader(r))
}
func (driverGoJSON) Name() string { return "go-json" }

type source struct {
	dec  *j.Decoder
	keys eng.KeyTracker
}

// NewReader wraps an io.Reader into an engine.TokenSource using go-json.
// go-json does not expose input offsets, so tokens carry Offset -1.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	out := eng.Token{Offset: -1}
	switch v := tok.(type) {
	case j.Delim:
		out.Kind = s.keys.Delim(rune(v))
	case string:
		out.Kind, out.String = s.keys.StringKind(), v
	case j.Number:
		s.keys.Scalar()
		out.Kind, out.Number = eng.KindNumber, string(v)
	case float64:
		s.keys.Scalar()
		out.Kind, out.Number = eng.KindNumber, strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		s.keys.Scalar()
		out.Kind, out.Bool = eng.KindBool, v
	case nil:
		s.keys.Scalar()
		out.Kind = eng.KindNull
	default:
		return eng.Token{}, fmt.Errorf("go-json: unexpected token %T", tok)
	}
	return out, nil
}

func (s *source) Location() int64 { return -1 }
