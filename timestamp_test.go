package rotorlog

import (
	"testing"
	"time"
)

func TestDeferredTimestampMemoizes(t *testing.T) {
	ts := NewDeferredTimestamp()
	first := ts.Now()
	second := ts.Now()
	if !first.Equal(second) {
		t.Errorf("Now() should return the same instant on repeated calls, got %v then %v", first, second)
	}
}

func TestDeferredTimestampFormatUsesMemoizedInstant(t *testing.T) {
	ts := NewDeferredTimestamp()
	want := ts.Now().Format("2006-01-02")
	got := ts.Format("2006-01-02")
	if got != want {
		t.Errorf("Format should render the same memoized instant, got %q want %q", got, want)
	}
}

func TestForceUTCFailsAfterLocalStamp(t *testing.T) {
	t.Cleanup(func() {
		utcForced = 0
		anyLocalStamped = 0
	})

	ts := NewDeferredTimestamp()
	ts.Now() // materializes a local-time instant, latching anyLocalStamped

	err := ForceUTC()
	if err == nil {
		t.Fatal("expected ForceUTC to fail once a record has already stamped local time")
	}
	rerr, ok := err.(*Error)
	if !ok || rerr.Kind != UtcAlreadyForced {
		t.Errorf("expected a *Error of Kind UtcAlreadyForced, got %#v", err)
	}
}

func TestForceUTCAppliesToNewTimestamps(t *testing.T) {
	utcForced = 0
	anyLocalStamped = 0
	t.Cleanup(func() {
		utcForced = 0
		anyLocalStamped = 0
	})

	if err := ForceUTC(); err != nil {
		t.Fatalf("ForceUTC should succeed before any timestamp has stamped local time: %v", err)
	}

	ts := NewDeferredTimestamp()
	got := ts.Now()
	if got.Location() != time.UTC {
		t.Errorf("expected the timestamp to be rendered in UTC, got location %v", got.Location())
	}
}
