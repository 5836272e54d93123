package engine

// KeyTracker turns the delimiter-level output of a JSON tokenizer such as
// encoding/json's Decoder.Token into engine token kinds. Those tokenizers
// report keys and string values alike, so the tracker follows object nesting
// to tell them apart.
type KeyTracker struct {
	stack []keyFrame
}

type keyFrame struct {
	object  bool
	wantKey bool
}

// Delim records '{', '}', '[' or ']' and returns the matching kind.
func (k *KeyTracker) Delim(d rune) Kind {
	switch d {
	case '{':
		k.stack = append(k.stack, keyFrame{object: true, wantKey: true})
		return KindBeginObject
	case '[':
		k.stack = append(k.stack, keyFrame{})
		return KindBeginArray
	}
	if n := len(k.stack); n > 0 {
		k.stack = k.stack[:n-1]
	}
	k.valueDone()
	if d == '}' {
		return KindEndObject
	}
	return KindEndArray
}

// StringKind classifies a string token as a key or a string value.
func (k *KeyTracker) StringKind() Kind {
	if n := len(k.stack); n > 0 && k.stack[n-1].object && k.stack[n-1].wantKey {
		k.stack[n-1].wantKey = false
		return KindKey
	}
	k.valueDone()
	return KindString
}

// Scalar records a number, bool or null value.
func (k *KeyTracker) Scalar() { k.valueDone() }

func (k *KeyTracker) valueDone() {
	if n := len(k.stack); n > 0 && k.stack[n-1].object {
		k.stack[n-1].wantKey = true
	}
}
