package rotorlog

import "testing"

type lifecycleSink struct {
	recordingSink
	shutdowns   int
	rotations   int
	reopens     int
	rotationErr error
}

func (s *lifecycleSink) Shutdown()              { s.shutdowns++ }
func (s *lifecycleSink) TriggerRotation() error { s.rotations++; return s.rotationErr }
func (s *lifecycleSink) ReopenOutput() error    { s.reopens++; return nil }

func TestHandleNewRejectsBadSpec(t *testing.T) {
	if _, err := New(Options{Spec: "bad-module=info"}); err == nil {
		t.Fatal("expected a bad initial spec to fail New")
	}
}

func TestHandleLogRoutesThroughPrimary(t *testing.T) {
	primary := &recordingSink{}
	h, err := New(Options{Spec: "info", Primary: primary})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	h.Router().Log(NewStaticRecord(Info, "myapp", "hello"))
	if got := primary.snapshot(); len(got) != 1 {
		t.Fatalf("expected the record to reach the primary sink, got %v", got)
	}
}

func TestHandleTriggerRotationByName(t *testing.T) {
	named := &lifecycleSink{}
	h, err := New(Options{Spec: "info", Primary: &recordingSink{}, Named: map[string]Sink{"aux": named}})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	if err := h.TriggerRotation("aux"); err != nil {
		t.Fatal(err)
	}
	if named.rotations != 1 {
		t.Errorf("expected exactly one rotation on the named sink, got %d", named.rotations)
	}
}

func TestHandleTriggerRotationUnknownSink(t *testing.T) {
	h, err := New(Options{Spec: "info", Primary: &recordingSink{}})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	if err := h.TriggerRotation("nope"); err == nil {
		t.Fatal("expected an error for an unknown sink name")
	}
}

func TestHandleReopenOutputOnNonReopenerSink(t *testing.T) {
	h, err := New(Options{Spec: "info", Primary: &recordingSink{}})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	err = h.ReopenOutput("")
	if err == nil {
		t.Fatal("expected an error when the primary sink does not implement Reopener")
	}
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != NoFileLogger {
		t.Errorf("expected a NoFileLogger error, got %#v", err)
	}
}

func TestHandleShutdownIsIdempotentAndDrainsAllSinks(t *testing.T) {
	primary := &lifecycleSink{}
	named := &lifecycleSink{}
	h, err := New(Options{Spec: "info", Primary: primary, Named: map[string]Sink{"aux": named}})
	if err != nil {
		t.Fatal(err)
	}

	h.Shutdown()
	h.Shutdown()

	if primary.shutdowns != 1 {
		t.Errorf("expected the primary sink to be shut down exactly once, got %d", primary.shutdowns)
	}
	if named.shutdowns != 1 {
		t.Errorf("expected the named sink to be shut down exactly once, got %d", named.shutdowns)
	}
}

type dupAdapter struct {
	recordingSink
	stderrLevel Severity
}

func (d *dupAdapter) SetStderrLevel(level Severity) { d.stderrLevel = level }

func TestHandleAdaptDuplicationToStderr(t *testing.T) {
	primary := &dupAdapter{}
	h, err := New(Options{Spec: "info", Primary: primary})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	if ok := h.AdaptDuplicationToStderr(Warn); !ok {
		t.Fatal("expected AdaptDuplicationToStderr to recognize the adapter interface")
	}
	if primary.stderrLevel != Warn {
		t.Errorf("expected the stderr level to be set to Warn, got %v", primary.stderrLevel)
	}
}

func TestHandleAdaptDuplicationUnsupported(t *testing.T) {
	h, err := New(Options{Spec: "info", Primary: &recordingSink{}})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Shutdown()

	if ok := h.AdaptDuplicationToStderr(Warn); ok {
		t.Fatal("expected false for a primary sink without stderr duplication support")
	}
}
