package collector

import (
	"bufio"
	"io"
	"math"
	"strconv"
)

// Escape backslash-escapes the characters that terminate a tag value in
// the line protocol: space, comma, equals and backslash itself. Pool names
// and device paths can contain any of them.
func Escape(s string) string {
	escaped := make([]byte, 0, len(s))
	return string(appendEscaped(escaped, s))
}

func appendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', ',', '=', '\\':
			dst = append(dst, '\\')
		}
		dst = append(dst, s[i])
	}
	return dst
}

// Tag is one key=value tag. Values are escaped by the encoder; keys are
// trusted constants from the measurement catalogue.
type Tag struct {
	Key   string
	Value string
}

// FieldValue is a field payload that knows how to render itself.
type FieldValue interface {
	appendValue(dst []byte, uint64Support bool) []byte
}

// Uint is an unsigned 64-bit counter field. In masked mode (the default)
// the value is ANDed with the signed-64 maximum and suffixed `i`; with
// uint64 support it is emitted unmasked and suffixed `u`. Masking can
// silently truncate extremely large counters; that is the documented cost
// of feeding consumers without unsigned support.
type Uint uint64

func (u Uint) appendValue(dst []byte, uint64Support bool) []byte {
	if uint64Support {
		dst = strconv.AppendUint(dst, uint64(u), 10)
		return append(dst, 'u')
	}
	dst = strconv.AppendUint(dst, uint64(u)&math.MaxInt64, 10)
	return append(dst, 'i')
}

// Float is a floating-point field, rendered with two decimals (pct_done is
// the only float in the catalogue).
type Float float64

func (f Float) appendValue(dst []byte, _ bool) []byte {
	return strconv.AppendFloat(dst, float64(f), 'f', 2, 64)
}

// Field is one key=value field. Field order within a measurement is fixed
// by the catalogue and must not change across calls: downstream schemas
// depend on it.
type Field struct {
	Key   string
	Value FieldValue
}

// Encoder renders metric lines to a buffered writer. One Flush per
// sampling pass gives streaming consumers complete, ordered passes.
type Encoder struct {
	w             *bufio.Writer
	uint64Support bool
	buf           []byte
}

// NewEncoder creates an encoder. uint64Support selects unmasked `u` output
// over the default masked `i` output.
func NewEncoder(w io.Writer, uint64Support bool) *Encoder {
	return &Encoder{
		w:             bufio.NewWriter(w),
		uint64Support: uint64Support,
	}
}

// EncodeLine writes one line:
//
//	measurement,tag=val,... field=val,... timestamp\n
//
// The timestamp is nanoseconds since the epoch, shared by every line of a
// sampling pass.
func (e *Encoder) EncodeLine(measurement string, tags []Tag, fields []Field, timestamp uint64) error {
	buf := e.buf[:0]
	buf = append(buf, measurement...)
	for _, t := range tags {
		buf = append(buf, ',')
		buf = append(buf, t.Key...)
		buf = append(buf, '=')
		buf = appendEscaped(buf, t.Value)
	}
	buf = append(buf, ' ')
	for i, f := range fields {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, f.Key...)
		buf = append(buf, '=')
		buf = f.Value.appendValue(buf, e.uint64Support)
	}
	buf = append(buf, ' ')
	buf = strconv.AppendUint(buf, timestamp, 10)
	buf = append(buf, '\n')
	e.buf = buf

	_, err := e.w.Write(buf)
	return err
}

// Flush drains the buffer to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}
