package logger

import "fmt"

type Level int

const (
	DEBUG Level = iota
	NOTICE
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = []string{
	"DEBUG",
	"NOTICE",
	"INFO",
	"WARN",
	"ERROR",
	"FATAL",
}

// String returns the string representation of a logging level.
func (p Level) String() string {
	return levelNames[p]
}

// LevelFromString takes a string like "warn" and returns the matching Level.
func LevelFromString(s string) (Level, error) {
	switch s {
	case "debug":
		return DEBUG, nil
	case "notice":
		return NOTICE, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	case "fatal":
		return FATAL, nil
	default:
		return -1, fmt.Errorf("invalid log level: %q", s)
	}
}
