package sinks

import (
	"errors"
	"sync"
	"testing"

	"github.com/one-com/rotorlog"
)

func TestFuncSinkInvokesCallbackWithFormattedLine(t *testing.T) {
	var mu sync.Mutex
	var got string
	s := NewFuncSink(func(line string) error {
		mu.Lock()
		defer mu.Unlock()
		got = line
		return nil
	}, rotorlog.BasicFormat, rotorlog.Trace)

	write(t, s, rotorlog.Info, "hello")

	mu.Lock()
	defer mu.Unlock()
	if got != "[INFO] myapp: hello" {
		t.Errorf("unexpected callback line: %q", got)
	}
}

func TestFuncSinkDropsRecordsAboveMaxLevel(t *testing.T) {
	calls := 0
	s := NewFuncSink(func(line string) error {
		calls++
		return nil
	}, rotorlog.BasicFormat, rotorlog.Warn)

	write(t, s, rotorlog.Debug, "filtered")
	if calls != 0 {
		t.Errorf("expected the callback not to be invoked for a filtered record, got %d calls", calls)
	}
}

func TestFuncSinkWrapsCallbackError(t *testing.T) {
	s := NewFuncSink(func(line string) error {
		return errors.New("boom")
	}, rotorlog.BasicFormat, rotorlog.Trace)

	r := rotorlog.NewStaticRecord(rotorlog.Info, "myapp", "msg")
	err := s.Write(rotorlog.NewDeferredTimestamp(), &r)
	if err == nil {
		t.Fatal("expected the callback error to propagate")
	}
	rerr, ok := err.(*rotorlog.Error)
	if !ok || rerr.Kind != rotorlog.SendFailed {
		t.Errorf("expected a SendFailed *rotorlog.Error, got %#v", err)
	}
}

func TestFuncSinkSetFuncSwapsUnderLock(t *testing.T) {
	var calledOld, calledNew bool
	s := NewFuncSink(func(line string) error {
		calledOld = true
		return nil
	}, rotorlog.BasicFormat, rotorlog.Trace)

	s.SetFunc(func(line string) error {
		calledNew = true
		return nil
	})

	write(t, s, rotorlog.Info, "after swap")
	if calledOld {
		t.Error("expected the old callback not to be invoked after SetFunc")
	}
	if !calledNew {
		t.Error("expected the new callback to be invoked after SetFunc")
	}
}
