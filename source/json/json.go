// Package json adapts encoding/json's streaming tokenizer to the engine
// token model. It is the default JSON driver.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	eng "github.com/reoring/confdoc/internal/engine"
)

type jsonSource struct {
	dec    *json.Decoder
	keys   eng.KeyTracker
	offset int64
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON.
func NewReader(r io.Reader) eng.TokenSource {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &jsonSource{dec: dec, offset: -1}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *jsonSource) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	s.offset = s.dec.InputOffset()
	out := eng.Token{Offset: s.offset}
	switch v := tok.(type) {
	case json.Delim:
		out.Kind = s.keys.Delim(rune(v))
	case string:
		out.Kind, out.String = s.keys.StringKind(), v
	case json.Number:
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
		return eng.Token{}, fmt.Errorf("json: unexpected token %T", tok)
	}
	return out, nil
}

func (s *jsonSource) Location() int64 { return s.offset }
