package rotorlog

import (
	"strings"
	"sync"
)

// DefaultRouteName is the special name in an explicit route meaning
// "also send to the primary sink" (§4.4).
const DefaultRouteName = "_Default"

// Router implements the logging-façade interface of §6: Enabled, Log,
// Flush. A host program installs it as its global logger; rotorlog never
// does that installation itself (see package doc).
type Router struct {
	spec    *sharedSpec
	stack   specStack
	primary Sink
	errCh   ErrorChannel

	namedMu sync.RWMutex
	named   map[string]Sink
}

// NewRouter builds a Router with the given initial spec and primary sink.
// Named sinks are added with AddSink.
func NewRouter(spec *FilterSpec, primary Sink, errCh ErrorChannel) *Router {
	if errCh == nil {
		errCh = DefaultErrorChannel()
	}
	return &Router{
		spec:    newSharedSpec(spec),
		primary: primary,
		errCh:   errCh,
		named:   make(map[string]Sink),
	}
}

// AddSink registers a named auxiliary sink, addressable via the
// "{name}" syntax (§4.4) and reachable from Handle.Flush/TriggerRotation.
func (rt *Router) AddSink(name string, s Sink) {
	rt.namedMu.Lock()
	rt.named[name] = s
	rt.namedMu.Unlock()
}

func (rt *Router) sinkNamed(name string) (Sink, bool) {
	rt.namedMu.RLock()
	s, ok := rt.named[name]
	rt.namedMu.RUnlock()
	return s, ok
}

// namedSnapshot returns a stable slice of the named sinks (without their
// names) to iterate without holding the lock across Sink calls.
func (rt *Router) namedSnapshot() []Sink {
	rt.namedMu.RLock()
	defer rt.namedMu.RUnlock()
	out := make([]Sink, 0, len(rt.named))
	for _, s := range rt.named {
		out = append(out, s)
	}
	return out
}

// Enabled is the fast path of §4.4 step 2: true iff the active spec
// would accept a record at sev for target. A target with the explicit
// "{n1,n2,...}" route shape always reports true, since Log() bypasses the
// spec for such records.
func (rt *Router) Enabled(sev Severity, target string) bool {
	if isExplicitRoute(target) {
		return true
	}
	return rt.spec.load().Enabled(sev, target)
}

// isExplicitRoute reports whether target has the "{n1,n2,...}" shape of
// §4.4 step 1.
func isExplicitRoute(target string) bool {
	return len(target) >= 2 && target[0] == '{' && target[len(target)-1] == '}'
}

func parseRoute(target string) []string {
	inner := target[1 : len(target)-1]
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Log implements the dispatch algorithm of §4.4.
func (rt *Router) Log(r Record) error {
	if isExplicitRoute(r.Target) {
		return rt.dispatchRoute(&r)
	}

	spec := rt.spec.load()
	if !spec.Enabled(r.Severity, r.Module) {
		return nil
	}
	if spec.pattern != nil && !spec.MatchesText(r.Message()) {
		return nil
	}
	if rt.primary == nil {
		return nil
	}
	now := NewDeferredTimestamp()
	return rt.primary.Write(now, &r)
}

// dispatchRoute sends r to every named sink in its explicit route,
// bypassing the filter spec entirely (§4.4 step 1: "the caller's intent
// dominates"). Unknown names are reported on the error channel, not
// treated as fatal.
func (rt *Router) dispatchRoute(r *Record) error {
	names := parseRoute(r.Target)
	now := NewDeferredTimestamp()
	var firstErr error
	for _, name := range names {
		if name == DefaultRouteName {
			if rt.primary != nil {
				if err := rt.primary.Write(now, r); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			continue
		}
		sink, ok := rt.sinkNamed(name)
		if !ok {
			rt.errCh.Error("rotorlog: explicit route to unknown sink %q", name)
			continue
		}
		if err := sink.Write(now, r); err != nil {
			rt.errCh.Error("rotorlog: sink %q: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Flush calls Flush on the primary sink then on every named sink,
// logging each error individually on the error channel (§4.4 step 5)
// rather than aborting partway through, and returns the first one.
func (rt *Router) Flush() error {
	var firstErr error
	if rt.primary != nil {
		if err := rt.primary.Flush(); err != nil {
			firstErr = err
			rt.errCh.Error("rotorlog: primary sink flush: %v", err)
		}
	}
	for _, s := range rt.namedSnapshot() {
		if err := s.Flush(); err != nil {
			rt.errCh.Error("rotorlog: sink flush: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SetNewSpec atomically replaces the active spec (§4.8).
func (rt *Router) SetNewSpec(spec *FilterSpec) {
	rt.spec.store(spec)
}

// ParseNewSpec parses text and replaces the active spec on success.
func (rt *Router) ParseNewSpec(text string) error {
	spec, err := Parse(text, rt.errCh)
	if err != nil {
		return err
	}
	rt.SetNewSpec(spec)
	return nil
}

// PushTempSpec saves the current spec on the stack and installs a
// temporary one (§4.8).
func (rt *Router) PushTempSpec(spec *FilterSpec) {
	rt.stack.push(rt.spec.load())
	rt.spec.store(spec)
}

// PopTempSpec restores the spec saved by the matching PushTempSpec; a
// pop on an empty stack is a no-op.
func (rt *Router) PopTempSpec() {
	if prev, ok := rt.stack.pop(); ok {
		rt.spec.store(prev)
	}
}

// CurrentSpec returns the spec currently in effect.
func (rt *Router) CurrentSpec() *FilterSpec {
	return rt.spec.load()
}
