package logger

import (
	"fmt"
	"sync"
)

// Buffer is a Logger for tests. Messages are recorded as "[level] text".
// Fields attached with WithFields are recorded separately in Fields as
// "key=value", so assertions on Messages don't depend on them.
type Buffer struct {
	mu       sync.Mutex
	Messages []string
	Fields   []string

	// Children created by WithFields record into their root.
	root  *Buffer
	level Level
}

// NewBuffer returns a Buffer with empty, non-nil Messages and Fields.
func NewBuffer() *Buffer {
	return &Buffer{
		Messages: make([]string, 0),
		Fields:   make([]string, 0),
	}
}

func (b *Buffer) store() *Buffer {
	if b.root != nil {
		return b.root
	}
	return b
}

func (b *Buffer) add(level Level, format string, v ...any) {
	if level < b.level {
		return
	}
	s := b.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, "["+levelTag(level)+"] "+fmt.Sprintf(format, v...))
}

func levelTag(level Level) string {
	switch level {
	case DEBUG:
		return "debug"
	case NOTICE:
		return "notice"
	case INFO:
		return "info"
	case WARN:
		return "warn"
	case ERROR:
		return "error"
	default:
		return "fatal"
	}
}

func (b *Buffer) Debug(format string, v ...any)  { b.add(DEBUG, format, v...) }
func (b *Buffer) Error(format string, v ...any)  { b.add(ERROR, format, v...) }
func (b *Buffer) Fatal(format string, v ...any)  { b.add(FATAL, format, v...) }
func (b *Buffer) Notice(format string, v ...any) { b.add(NOTICE, format, v...) }
func (b *Buffer) Warn(format string, v ...any)   { b.add(WARN, format, v...) }
func (b *Buffer) Info(format string, v ...any)   { b.add(INFO, format, v...) }

func (b *Buffer) WithFields(fields ...Field) Logger {
	s := b.store()
	s.mu.Lock()
	for _, f := range fields {
		s.Fields = append(s.Fields, f.Key()+"="+f.String())
	}
	s.mu.Unlock()
	return &Buffer{root: s, level: b.level}
}

func (b *Buffer) SetLevel(level Level) { b.level = level }
func (b *Buffer) Level() Level         { return b.level }
