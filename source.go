package confdoc

import (
	"io"
	"sync"

	eng "github.com/reoring/confdoc/internal/engine"
	jsonsrc "github.com/reoring/confdoc/source/json"
)

// TokenKind enumerates JSON token kinds.
type TokenKind int

const (
	TokenBeginObject TokenKind = iota
	TokenEndObject
	TokenBeginArray
	TokenEndArray
	TokenKey
	TokenString
	TokenNumber
	TokenBool
	TokenNull
)

// Token describes a token in the input stream. Offset records the byte position
// when known (-1 otherwise).
type Token struct {
	Kind   TokenKind
	String string // Stored for key/string tokens.
	Number string // Stored as text; the loader decides between int and float.
	Bool   bool
	Offset int64
}

// Source is a streaming JSON token source.
type Source interface {
	NextToken() (Token, error)
	Location() int64 // byte offset; -1 if unknown
}

// JSONDriver converts JSON input into a Source via a pluggable SPI. The default
// implementation is based on encoding/json and may be swapped with SetJSONDriver.
// Importing github.com/reoring/confdoc/source installs the go-json driver.
type JSONDriver interface {
	NewReader(r io.Reader) Source
	Name() string
}

var (
	jsonDriverMu      sync.RWMutex
	currentJSONDriver JSONDriver = defaultJSONDriver{}
)

// SetJSONDriver replaces the global JSON driver; nil values are ignored.
func SetJSONDriver(d JSONDriver) {
	if d == nil {
		return
	}
	jsonDriverMu.Lock()
	currentJSONDriver = d
	jsonDriverMu.Unlock()
}

// UseDefaultJSONDriver restores the default encoding/json-backed driver.
func UseDefaultJSONDriver() {
	jsonDriverMu.Lock()
	currentJSONDriver = defaultJSONDriver{}
	jsonDriverMu.Unlock()
}

// JSONDriverName reports the name of the active JSON driver.
func JSONDriverName() string { return getJSONDriver().Name() }

func getJSONDriver() JSONDriver {
	jsonDriverMu.RLock()
	d := currentJSONDriver
	jsonDriverMu.RUnlock()
	return d
}

// defaultJSONDriver wraps the encoding/json implementation.
type defaultJSONDriver struct{}

func (defaultJSONDriver) NewReader(r io.Reader) Source { return SourceFromEngine(jsonsrc.NewReader(r)) }
func (defaultJSONDriver) Name() string                 { return "encoding/json" }

// SourceFromEngine wraps an engine.TokenSource as a confdoc.Source.
func SourceFromEngine(inner eng.TokenSource) Source {
	return &engineSourceAdapter{inner: inner}
}

type engineSourceAdapter struct {
	inner eng.TokenSource
}

func (s *engineSourceAdapter) NextToken() (Token, error) {
	t, err := s.inner.NextToken()
	if err != nil {
		return Token{}, err
	}
	return Token{Kind: TokenKind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}
func (s *engineSourceAdapter) Location() int64 { return s.inner.Location() }

// engineTokenSource unwraps adapters, or adapts a foreign Source back to the
// engine representation.
func engineTokenSource(s Source) eng.TokenSource {
	if ea, ok := s.(*engineSourceAdapter); ok {
		return ea.inner
	}
	return sourceToEngine{s}
}

type sourceToEngine struct{ s Source }

func (a sourceToEngine) NextToken() (eng.Token, error) {
	t, err := a.s.NextToken()
	if err != nil {
		return eng.Token{}, err
	}
	return eng.Token{Kind: eng.Kind(t.Kind), String: t.String, Number: t.Number, Bool: t.Bool, Offset: t.Offset}, nil
}
func (a sourceToEngine) Location() int64 { return a.s.Location() }

// enforceSource applies duplicate-key and depth policies from opt. Issues
// that are tolerated (DuplicateKeys == Warn) are forwarded to sink.
func enforceSource(s Source, opt LoadOpt, sink func(Issue)) eng.TokenSource {
	inner := engineTokenSource(s)
	if opt.DuplicateKeys == Ignore && opt.MaxDepth == 0 && opt.MaxBytes == 0 {
		return inner
	}
	var forward func(eng.SimpleIssue)
	if sink != nil {
		forward = func(si eng.SimpleIssue) {
			sink(Issue{Path: si.Path, Code: si.Code, Message: si.Message})
		}
	}
	return eng.WrapWithEnforcement(inner, eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.DuplicateKeys),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		IssueSink:   forward,
	})
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Ignore:
		return eng.DupIgnore
	case Warn:
		return eng.DupWarn
	default:
		return eng.DupError
	}
}
