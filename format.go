package rotorlog

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-logfmt/logfmt"
)

// FormatFunc is the format-function contract of §4.3: it writes one
// formatted representation (without a trailing line terminator) of r to
// w. A failure is reported on an ErrorChannel by whatever called it; it
// must never abort the pipeline. The core treats this as entirely
// opaque, the same arm's-length relationship the teacher keeps between
// its Handler chain and a terminal Formatter.
type FormatFunc func(w io.Writer, now *DeferredTimestamp, r *Record) error

var linebufPool = sync.Pool{New: func() interface{} { return new(bytes.Buffer) }}

func getLineBuf() *bytes.Buffer {
	b := linebufPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}
func putLineBuf(b *bytes.Buffer) { linebufPool.Put(b) }

var levelPrefix = [...]string{
	Error: "ERROR",
	Warn:  "WARN",
	Info:  "INFO",
	Debug: "DEBUG",
	Trace: "TRACE",
}

var pid = os.Getpid()

// BasicFormat writes "[LEVEL] module: message k=v ...", the teacher's
// LminFlags-equivalent "no timestamp, let the host environment add one"
// shape.
func BasicFormat(w io.Writer, now *DeferredTimestamp, r *Record) error {
	return writeLine(w, nil, r, false, false)
}

// WithTimestampFormat is BasicFormat with a microsecond-resolution
// local/UTC timestamp inserted after the "[LEVEL]" tag, materializing now exactly
// once regardless of how many sinks format the same record (§4.1).
func WithTimestampFormat(w io.Writer, now *DeferredTimestamp, r *Record) error {
	return writeLine(w, now, r, true, false)
}

// WithSourceFormat adds timestamp plus file:line source location.
func WithSourceFormat(w io.Writer, now *DeferredTimestamp, r *Record) error {
	return writeLine(w, now, r, true, true)
}

func writeLine(w io.Writer, now *DeferredTimestamp, r *Record, withTime, withSource bool) error {
	buf := getLineBuf()
	defer putLineBuf(buf)

	buf.WriteByte('[')
	buf.WriteString(levelPrefix[r.Severity])
	buf.WriteByte(']')
	buf.WriteByte(' ')
	if withTime {
		buf.WriteString(now.Format("2006-01-02 15:04:05.000000"))
		buf.WriteByte(' ')
	}
	if r.Module != "" {
		buf.WriteString(r.Module)
		buf.WriteString(": ")
	}
	if withSource && r.File != "" {
		buf.WriteString(r.File)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(r.Line))
		buf.WriteString(": ")
	}
	buf.WriteString(r.Message())
	if len(r.KV) > 0 {
		buf.WriteByte(' ')
		marshalKeyvals(buf, r.KV)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// pruneKey strips characters that make a key invalid for logfmt, the
// same recovery strategy the teacher's marshalKeyvals uses.
func pruneKey(r rune) rune {
	if r <= ' ' || r == '=' || r == '"' || r == utf8.RuneError {
		return -1
	}
	return r
}

func marshalKeyvals(w io.Writer, kv []interface{}) {
	if len(kv) == 0 {
		return
	}
	enc := logfmt.NewEncoder(w)
	for i := 0; i+1 < len(kv); i += 2 {
		k, v := kv[i], kv[i+1]
		err := enc.EncodeKeyval(k, v)
		if err == logfmt.ErrInvalidKey {
			if key, ok := k.(string); ok {
				key = strings.Map(pruneKey, key)
				err = enc.EncodeKeyval(key, v)
			}
		}
		if err != nil {
			_ = enc.EncodeKeyval("logfmt_error", err.Error())
		}
	}
}

// jsonRecord is the wire shape of JSONFormat.
type jsonRecord struct {
	Level  string                 `json:"level"`
	Time   string                 `json:"time,omitempty"`
	Module string                 `json:"module,omitempty"`
	File   string                 `json:"file,omitempty"`
	Line   int                    `json:"line,omitempty"`
	Msg    string                 `json:"msg"`
	KV     map[string]interface{} `json:"kv,omitempty"`
}

// JSONFormat renders the record as one JSON object, without a trailing
// newline (the FormatFunc contract).
func JSONFormat(w io.Writer, now *DeferredTimestamp, r *Record) error {
	jr := jsonRecord{
		Level:  r.Severity.String(),
		Module: r.Module,
		File:   r.File,
		Line:   r.Line,
		Msg:    r.Message(),
	}
	if now != nil {
		jr.Time = now.Format("2006-01-02T15:04:05.000000Z07:00")
	}
	if len(r.KV) > 0 {
		jr.KV = make(map[string]interface{}, len(r.KV)/2)
		for i := 0; i+1 < len(r.KV); i += 2 {
			if k, ok := r.KV[i].(string); ok {
				jr.KV[k] = r.KV[i+1]
			}
		}
	}
	data, err := json.Marshal(jr)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
