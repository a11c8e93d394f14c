package sinks

import (
	"sync"

	"github.com/one-com/rotorlog"
)

// MemorySink retains the last N formatted lines in a ring buffer instead
// of writing anywhere, for host programs that want a point-in-time
// snapshot of recent log activity (a status page, a panic report) rather
// than a stream. Grounded on the same bounded-ring idea as the
// rotatefile cleanup policies' keep-N semantics, applied here to records
// instead of files.
type MemorySink struct {
	format   rotorlog.FormatFunc
	maxLevel rotorlog.Severity

	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewMemorySink creates a ring buffer holding up to capacity lines.
func NewMemorySink(capacity int, format rotorlog.FormatFunc, maxLevel rotorlog.Severity) *MemorySink {
	if capacity < 1 {
		capacity = 1
	}
	if format == nil {
		format = rotorlog.WithTimestampFormat
	}
	return &MemorySink{
		format:   format,
		maxLevel: maxLevel,
		lines:    make([]string, capacity),
	}
}

func (m *MemorySink) Write(now *rotorlog.DeferredTimestamp, r *rotorlog.Record) error {
	if r.Severity > m.maxLevel {
		return nil
	}
	buf := getLineBuffer()
	defer putLineBuffer(buf)
	if err := m.format(buf, now, r); err != nil {
		return rotorlog.Wrap(rotorlog.FormatFailed, "memory sink format", err)
	}
	line := buf.String()

	m.mu.Lock()
	m.lines[m.next] = line
	m.next++
	if m.next == len(m.lines) {
		m.next = 0
		m.full = true
	}
	m.mu.Unlock()
	return nil
}

// Snapshot returns the retained lines in chronological order (oldest
// first). The returned slice is a copy; mutating it does not affect the
// sink.
func (m *MemorySink) Snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		out := make([]string, m.next)
		copy(out, m.lines[:m.next])
		return out
	}
	out := make([]string, len(m.lines))
	copy(out, m.lines[m.next:])
	copy(out[len(m.lines)-m.next:], m.lines[:m.next])
	return out
}

func (m *MemorySink) Flush() error { return nil }
func (m *MemorySink) Shutdown()    {}

func (m *MemorySink) MaxLevel() rotorlog.Severity { return m.maxLevel }
