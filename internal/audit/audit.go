// Package audit provides the leveled audit-message capability used by the
// cleaning pipeline.
//
// The pipeline itself only depends on the Logger interface. Construction,
// destinations, and lifecycle (closing the optional summary file) are the
// caller's responsibility.
package audit

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Level is the severity of an audit message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// Logger records audit messages at a severity level.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Std is a Logger writing level-prefixed lines through the standard log package.
type Std struct {
	l   *log.Logger
	min Level
}

// New returns a Std logger writing to w at LevelDebug and above.
func New(w io.Writer) *Std {
	return NewLevel(w, LevelDebug)
}

// NewLevel returns a Std logger that discards messages below min.
func NewLevel(w io.Writer, min Level) *Std {
	return &Std{
		l:   log.New(w, "", log.LstdFlags),
		min: min,
	}
}

func (s *Std) logf(lv Level, format string, args ...any) {
	if lv < s.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	// Keep audit lines single-line so summary files stay grep-able.
	msg = strings.ReplaceAll(msg, "\n", " ")
	s.l.Printf("%s - %s", lv, msg)
}

func (s *Std) Debugf(format string, args ...any) { s.logf(LevelDebug, format, args...) }
func (s *Std) Infof(format string, args ...any)  { s.logf(LevelInfo, format, args...) }
func (s *Std) Warnf(format string, args ...any)  { s.logf(LevelWarn, format, args...) }
func (s *Std) Errorf(format string, args ...any) { s.logf(LevelError, format, args...) }

// File is a Logger appending to a file, typically used as the spec's
// summary_file destination at LevelInfo and above.
type File struct {
	Std
	f *os.File
}

// OpenFile opens (creating parent directories and the file as needed) a
// file-backed logger filtering below min.
func OpenFile(path string, min Level) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create summary dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open summary file: %w", err)
	}
	return &File{Std: *NewLevel(f, min), f: f}, nil
}

// Close closes the underlying file.
func (f *File) Close() error { return f.f.Close() }

// Multi fans audit messages out to every given logger.
func Multi(loggers ...Logger) Logger { return multi(loggers) }

type multi []Logger

func (m multi) Debugf(format string, args ...any) {
	for _, l := range m {
		l.Debugf(format, args...)
	}
}

func (m multi) Infof(format string, args ...any) {
	for _, l := range m {
		l.Infof(format, args...)
	}
}

func (m multi) Warnf(format string, args ...any) {
	for _, l := range m {
		l.Warnf(format, args...)
	}
}

func (m multi) Errorf(format string, args ...any) {
	for _, l := range m {
		l.Errorf(format, args...)
	}
}

// Nop discards everything. Useful default for tests.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}
