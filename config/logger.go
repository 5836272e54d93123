package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/reoring/confdoc"
)

// NewLogger builds a logger writing to w (os.Stdout when nil). format
// "console" selects the human-readable writer; anything else is JSON.
// Unknown levels fall back to info.
func NewLogger(w io.Writer, level, format string) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// LoggerFor builds the logger described by the logging section of doc.
func LoggerFor(doc *confdoc.Document, w io.Writer) zerolog.Logger {
	level, _ := doc.String("logging.level")
	format, _ := doc.String("logging.format")
	return NewLogger(w, level, format)
}
