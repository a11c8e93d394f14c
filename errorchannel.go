package rotorlog

import (
	"io"
	"os"
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// ErrorChannel is the local, panic-free error path of §7: steady-state
// errors inside a sink are surfaced here instead of aborting the
// process or unwinding through the log call-site. It is never routed
// through the primary sink, to avoid the circular dependency §9 warns
// about.
type ErrorChannel interface {
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// notepadChannel adapts a jwalterweatherman.Notepad - the teacher's own
// (declared but, in the copy we started from, unwired) dependency - into
// an ErrorChannel. This gives the parser's "skipped with a warning"
// behavior and sink steady-state errors a real leveled, prefixed output
// instead of a bare fmt.Fprintf.
type notepadChannel struct {
	mu      sync.Mutex
	pad     *jww.Notepad
	onBreak func(error)
}

// NewNotepadErrorChannel builds an ErrorChannel writing WARN and ERROR
// lines to w (stderr, stdout, a file, or io.Discard for a black hole, per
// §7's "selected by the caller at setup"). onBreak, if non-nil, is
// called when writing a line panics with an error value; it may panic
// the process so integration tests notice. A write error that w returns
// without panicking is dropped by the underlying logger and does not
// reach onBreak.
func NewNotepadErrorChannel(w io.Writer, onBreak func(error)) ErrorChannel {
	pad := jww.NewNotepad(jww.LevelWarn, jww.LevelWarn, w, io.Discard, "", 0)
	return &notepadChannel{pad: pad, onBreak: onBreak}
}

// DefaultErrorChannel writes to stderr and never panics on a broken
// channel - the conservative default appropriate for production use.
func DefaultErrorChannel() ErrorChannel {
	return NewNotepadErrorChannel(os.Stderr, nil)
}

func (c *notepadChannel) Warn(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.safe(func() { c.pad.WARN.Printf(format, args...) })
}

func (c *notepadChannel) Error(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.safe(func() { c.pad.ERROR.Printf(format, args...) })
}

func (c *notepadChannel) safe(fn func()) {
	defer func() {
		if r := recover(); r != nil && c.onBreak != nil {
			if err, ok := r.(error); ok {
				c.onBreak(err)
			}
		}
	}()
	fn()
}

// discardChannel is the "black hole" error channel of §7.
type discardChannel struct{}

func (discardChannel) Warn(string, ...interface{})  {}
func (discardChannel) Error(string, ...interface{}) {}

// DiscardErrorChannel drops every steady-state error silently.
func DiscardErrorChannel() ErrorChannel { return discardChannel{} }
