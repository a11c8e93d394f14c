// Package sinks collects the auxiliary Sink implementations of §4.7: the
// standard-stream sinks and their duplication policy, a bounded
// in-memory buffer, a syslog sink, and an adapter for user-supplied
// sinks. The file sink (§4.6) lives in the sibling rotatefile package,
// since it is by far the largest and most stateful of the lot.
package sinks

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/one-com/rotorlog"
	"github.com/one-com/rotorlog/writemode"
)

// StreamSink writes formatted records to any io.Writer (typically
// os.Stdout/os.Stderr, but equally a caller-supplied writer - this is
// also how a "user-supplied sink" backed by an io.Writer is built)
// through one of the three write modes of §4.5.
type StreamSink struct {
	w        writemode.Writer
	format   rotorlog.FormatFunc
	maxLevel rotorlog.Severity
}

// StreamConfig selects the write mode a StreamSink uses, mirroring the
// teacher's SyncWriter (Direct-equivalent) generalized to all three
// modes of §4.5.
type StreamConfig struct {
	Mode        WriteMode
	Format      rotorlog.FormatFunc
	MaxLevel    rotorlog.Severity
	BufferSize  int           // Buffered mode capacity
	FlushEvery  time.Duration // Buffered/Async flusher interval; 0 disables
	Pool        *writemode.BufferPool // Async mode; a default pool is created if nil
	AlwaysFlush bool                  // Direct mode: flush after every write
	Capture     io.Writer             // Direct mode "support capture" duplicate
}

// WriteMode selects Direct, Buffered, or Async (§4.5).
type WriteMode int

const (
	Direct WriteMode = iota
	Buffered
	Async
)

// NewStreamSink builds a StreamSink over out per cfg.
func NewStreamSink(out io.Writer, cfg StreamConfig) *StreamSink {
	format := cfg.Format
	if format == nil {
		format = rotorlog.WithTimestampFormat
	}
	var w writemode.Writer
	switch cfg.Mode {
	case Buffered:
		size := cfg.BufferSize
		if size <= 0 {
			size = 4096
		}
		w = writemode.NewBuffered(out, size, cfg.FlushEvery)
	case Async:
		pool := cfg.Pool
		if pool == nil {
			pool = writemode.NewBufferPool(256, 64<<10)
		}
		w = writemode.NewAsync(out, pool, cfg.FlushEvery)
	default:
		w = writemode.NewDirect(out, cfg.AlwaysFlush, cfg.Capture)
	}

	return &StreamSink{w: w, format: format, maxLevel: cfg.MaxLevel}
}

func (s *StreamSink) Write(now *rotorlog.DeferredTimestamp, r *rotorlog.Record) error {
	if r.Severity > s.maxLevel {
		return nil
	}
	buf := getLineBuffer()
	defer putLineBuffer(buf)
	if err := s.format(buf, now, r); err != nil {
		return rotorlog.Wrap(rotorlog.FormatFailed, "stream sink format", err)
	}
	if n := buf.Len(); n == 0 || buf.Bytes()[n-1] != '\n' {
		buf.WriteByte('\n')
	}
	_, err := s.w.Write(buf.Bytes())
	return err
}

func (s *StreamSink) Flush() error      { return s.w.Flush() }
func (s *StreamSink) Shutdown()         { s.w.Shutdown() }
func (s *StreamSink) MaxLevel() rotorlog.Severity { return s.maxLevel }

// --- Standard-stream duplication policy (§4.7) -------------------------

// Duplicator wraps a primary Sink and optionally mirrors every record
// that passes an atomically updatable severity floor to stderr and/or
// stdout, implementing the policy described in §4.7 and attached to the
// primary sink per §4.4 step 4.
//
// Ordering decision (§9 open question): the primary sink's own
// underlying write happens first, then the duplicate writes follow, in
// stderr-then-stdout order. This is arbitrary but fixed.
type Duplicator struct {
	primary rotorlog.Sink
	stderr  *StreamSink
	stdout  *StreamSink

	stderrLevel int32 // atomic rotorlog.Severity, -1 disabled (Off)
	stdoutLevel int32
}

// NewDuplicator wraps primary. stderr and stdout are supplied by the
// caller and may be nil; duplication to each starts disabled (level Off)
// until SetStderrLevel/SetStdoutLevel raises it.
func NewDuplicator(primary rotorlog.Sink, stderr, stdout *StreamSink) *Duplicator {
	d := &Duplicator{primary: primary, stderr: stderr, stdout: stdout}
	atomic.StoreInt32(&d.stderrLevel, int32(rotorlog.Off))
	atomic.StoreInt32(&d.stdoutLevel, int32(rotorlog.Off))
	return d
}

func (d *Duplicator) SetStderrLevel(level rotorlog.Severity) { atomic.StoreInt32(&d.stderrLevel, int32(level)) }
func (d *Duplicator) SetStdoutLevel(level rotorlog.Severity) { atomic.StoreInt32(&d.stdoutLevel, int32(level)) }

func (d *Duplicator) Write(now *rotorlog.DeferredTimestamp, r *rotorlog.Record) error {
	err := d.primary.Write(now, r)
	if d.stderr != nil {
		if lvl := rotorlog.Severity(atomic.LoadInt32(&d.stderrLevel)); lvl.Permits(r.Severity) {
			_ = d.stderr.Write(now, r)
		}
	}
	if d.stdout != nil {
		if lvl := rotorlog.Severity(atomic.LoadInt32(&d.stdoutLevel)); lvl.Permits(r.Severity) {
			_ = d.stdout.Write(now, r)
		}
	}
	return err
}

func (d *Duplicator) Flush() error {
	err := d.primary.Flush()
	if d.stderr != nil {
		_ = d.stderr.Flush()
	}
	if d.stdout != nil {
		_ = d.stdout.Flush()
	}
	return err
}

func (d *Duplicator) Shutdown() {
	d.primary.Shutdown()
	if d.stderr != nil {
		d.stderr.Shutdown()
	}
	if d.stdout != nil {
		d.stdout.Shutdown()
	}
}

func (d *Duplicator) MaxLevel() rotorlog.Severity { return d.primary.MaxLevel() }
