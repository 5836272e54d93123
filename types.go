package confdoc

// UnknownPolicy controls how unknown keys are handled.
type UnknownPolicy int

const (
	UnknownStrict UnknownPolicy = iota // Reject unknown keys with an error.
	UnknownStrip                       // Drop unknown keys.
)

func (p UnknownPolicy) String() string {
	if p == UnknownStrip {
		return "strip"
	}
	return "strict"
}

// Severity expresses the severity level for input anomalies.
type Severity int

const (
	Error Severity = iota
	Warn
	Ignore
)

// LoadOpt bundles loading options.
type LoadOpt struct {
	// CollectAll keeps resolving the remaining fields after a failure and
	// reports the first issue of every failing field. The default aborts the
	// load at the first failing field.
	CollectAll bool
	// DuplicateKeys decides what happens when a mapping repeats a key.
	// The zero value rejects the input.
	DuplicateKeys Severity
	// MaxDepth caps the nesting depth of decoded input (0 = unlimited).
	MaxDepth int
	// MaxBytes caps the size of text input (0 = unlimited).
	MaxBytes int64
	// Warn receives non-fatal issues such as tolerated duplicate keys.
	Warn func(Issue)
}

func lastOpt(opts []LoadOpt) LoadOpt {
	if len(opts) == 0 {
		return LoadOpt{}
	}
	return opts[len(opts)-1]
}
