package logger

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Field is a key/value pair attached to a log line. Printers only need the
// rendered value, so fields are formatted when they are created.
type Field interface {
	Key() string
	String() string
}

// Fields are printed in the order they were added. Keys may repeat.
type Fields []Field

func (f *Fields) Add(fields ...Field) {
	*f = append(*f, fields...)
}

type renderedField struct {
	key, value string
}

func (f renderedField) Key() string    { return f.key }
func (f renderedField) String() string { return f.value }

func StringField(key, value string) Field {
	return renderedField{key: key, value: value}
}

func IntField(key string, value int) Field {
	return renderedField{key: key, value: strconv.Itoa(value)}
}

// DurationField renders d with time.Duration's String, e.g. "1.5s".
func DurationField(key string, d time.Duration) Field {
	return renderedField{key: key, value: d.String()}
}

// BytesField renders a size in SI units, e.g. "1.2 kB".
func BytesField(key string, n int) Field {
	if n < 0 {
		n = 0
	}
	return renderedField{key: key, value: humanize.Bytes(uint64(n))}
}
