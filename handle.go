package rotorlog

import (
	"runtime"
	"sync"
)

// Options configures a Handle (§4.8/§6).
type Options struct {
	// Spec is the initial filter spec text (§4.2 grammar).
	Spec string
	// ErrorChannel receives warnings/errors the runtime cannot otherwise
	// surface to the caller (parse warnings, sink write failures). If
	// nil, DefaultErrorChannel() is used.
	ErrorChannel ErrorChannel
	// Primary is the sink every non-explicitly-routed record reaches.
	Primary Sink
	// Named registers additional sinks addressable via the "{name}"
	// explicit-route syntax and reachable from Flush/TriggerRotation/etc.
	Named map[string]Sink
}

// Handle owns a Router, its primary and named sinks, and the scoped-spec
// stack, and is the unit of lifecycle management described in §4.8: a
// host program keeps exactly one Handle alive for as long as it wants to
// log, and calls Shutdown (or lets the finalizer do it) exactly once.
type Handle struct {
	router *Router
	errCh  ErrorChannel

	shutdownOnce sync.Once
}

// New builds a Handle per opts. The initial spec must parse; a bad
// Options.Spec is the one error New can return.
func New(opts Options) (*Handle, error) {
	ch := opts.ErrorChannel
	if ch == nil {
		ch = DefaultErrorChannel()
	}
	spec, err := Parse(opts.Spec, ch)
	if err != nil {
		return nil, err
	}

	router := NewRouter(spec, opts.Primary, ch)
	for name, s := range opts.Named {
		router.AddSink(name, s)
	}

	h := &Handle{router: router, errCh: ch}
	runtime.SetFinalizer(h, (*Handle).finalize)
	return h, nil
}

// Router returns the Handle's façade for Enabled/Log/Flush, the three
// methods a host program's global logger installs (§6).
func (h *Handle) Router() *Router { return h.router }

// SetNewSpec atomically replaces the active filter spec.
func (h *Handle) SetNewSpec(spec *FilterSpec) { h.router.SetNewSpec(spec) }

// ParseNewSpec parses text and, on success, replaces the active spec.
func (h *Handle) ParseNewSpec(text string) error { return h.router.ParseNewSpec(text) }

// PushTempSpec installs a temporary spec, saving the current one so a
// matching PopTempSpec can restore it (§4.8's scoped-override stack).
func (h *Handle) PushTempSpec(spec *FilterSpec) { h.router.PushTempSpec(spec) }

// PopTempSpec restores the spec saved by the matching PushTempSpec.
func (h *Handle) PopTempSpec() { h.router.PopTempSpec() }

// CurrentSpec returns the spec currently in effect.
func (h *Handle) CurrentSpec() *FilterSpec { return h.router.CurrentSpec() }

// Flush flushes the primary sink and every named sink, logging every
// error on the error channel and returning the first one encountered
// (§4.8).
func (h *Handle) Flush() error { return h.router.Flush() }

// TriggerRotation asks name (or the primary sink, if name is "") to
// rotate immediately, implementing the Manual rotation criterion and
// propagation described in §4.8. Sinks that don't support rotation
// (they don't implement Rotator) are silently skipped.
func (h *Handle) TriggerRotation(name string) error {
	s, ok := h.resolve(name)
	if !ok {
		return Wrap(BadConfig, "trigger_rotation: unknown sink "+name, nil)
	}
	if r, ok := s.(Rotator); ok {
		return r.TriggerRotation()
	}
	return nil
}

// ReopenOutput asks name (or the primary sink, if name is "") to close
// and reopen its underlying file, tolerating external manipulation
// (§4.6.5) or an explicit SIGHUP-style request.
func (h *Handle) ReopenOutput(name string) error {
	s, ok := h.resolve(name)
	if !ok {
		return Wrap(BadConfig, "reopen_output: unknown sink "+name, nil)
	}
	if r, ok := s.(Reopener); ok {
		return r.ReopenOutput()
	}
	return Wrap(NoFileLogger, "reopen_output: sink "+name+" has no file to reopen", nil)
}

// ExistingLogFiles enumerates the files name (or the primary sink, if
// name is "") recognizes as belonging to its own naming scheme (§4.8).
func (h *Handle) ExistingLogFiles(name string, selector FileSelector) ([]string, error) {
	s, ok := h.resolve(name)
	if !ok {
		return nil, Wrap(BadConfig, "existing_log_files: unknown sink "+name, nil)
	}
	fe, ok := s.(FileEnumerator)
	if !ok {
		return nil, Wrap(NoFileLogger, "existing_log_files: sink "+name+" is not file-backed", nil)
	}
	return fe.ExistingLogFiles(selector)
}

func (h *Handle) resolve(name string) (Sink, bool) {
	if name == "" {
		if h.router.primary == nil {
			return nil, false
		}
		return h.router.primary, true
	}
	return h.router.sinkNamed(name)
}

// duplicationStderr/duplicationStdout are satisfied by sinks.Duplicator
// without rotorlog importing the sinks package - Handle only needs to
// call the methods, not know the concrete type.
type duplicationStderr interface{ SetStderrLevel(Severity) }
type duplicationStdout interface{ SetStdoutLevel(Severity) }

// AdaptDuplicationToStderr atomically changes the severity floor the
// primary sink mirrors to stderr, if it supports stream duplication
// (§4.8).
func (h *Handle) AdaptDuplicationToStderr(level Severity) bool {
	if d, ok := h.router.primary.(duplicationStderr); ok {
		d.SetStderrLevel(level)
		return true
	}
	return false
}

// AdaptDuplicationToStdout is AdaptDuplicationToStderr's stdout twin.
func (h *Handle) AdaptDuplicationToStdout(level Severity) bool {
	if d, ok := h.router.primary.(duplicationStdout); ok {
		d.SetStdoutLevel(level)
		return true
	}
	return false
}

// Shutdown flushes and drains every sink, in the order §4.8 specifies:
// the scoped-spec stack first (cheap, no I/O), then the primary sink,
// then the named sinks. Calling Shutdown more than once is a no-op; the
// finalizer calls it too, so a dropped Handle still drains.
func (h *Handle) Shutdown() {
	h.shutdownOnce.Do(func() {
		for {
			if _, ok := h.router.stack.pop(); !ok {
				break
			}
		}
		if h.router.primary != nil {
			h.router.primary.Shutdown()
		}
		for _, s := range h.router.namedSnapshot() {
			s.Shutdown()
		}
		runtime.SetFinalizer(h, nil)
	})
}

func (h *Handle) finalize() {
	h.Shutdown()
}
