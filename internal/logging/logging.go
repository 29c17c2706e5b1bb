// Package logging builds the component loggers used across scorepad.
//
// Components log through plain *log.Logger values with bracketed
// prefixes ("[sync] ", "[api] ", ...). On a venue device the CLI points
// them at a size-rotated file via lumberjack so a week-long event
// doesn't fill the flash storage; with no file configured they write to
// stderr.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Output returns the shared log destination for the given file path.
// An empty path means stderr.
func Output(file string) io.Writer {
	if file == "" {
		return os.Stderr
	}

	return &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
}

// New creates a component logger writing to w with the standard prefix
// shape.
func New(w io.Writer, component string) *log.Logger {
	return log.New(w, "["+component+"] ", log.LstdFlags)
}
