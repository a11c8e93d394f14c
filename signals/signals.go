// Package signals dispatches OS signals to callbacks, the same generic
// reflect.Select-over-dynamic-channels mechanism the teacher's
// signals package uses, adapted here with a convenience entry point
// for the pair of signals a rotorlog host typically cares about:
// SIGHUP (reopen the active log file) and SIGUSR1 (trigger a manual
// rotation).
package signals

import (
	"os"
	"os/signal"
	"reflect"
	"syscall"
)

// Action is a function called when an OS signal is received.
type Action func()

// Mappings maps OS signals to the Action run when they arrive.
type Mappings map[os.Signal]Action

// Run spawns a goroutine that selects over one 1-buffered channel per
// signal in mappings, dispatching to the matching Action. A signal is
// only dropped if another instance of the same signal is already
// pending, matching the teacher's doc comment for the equivalent
// function.
func Run(mappings Mappings) {
	go dispatch(mappings)
}

func dispatch(mappings Mappings) {
	cases := make([]reflect.SelectCase, len(mappings))
	actions := make([]Action, len(mappings))

	idx := 0
	for sig, action := range mappings {
		sigch := make(chan os.Signal, 1)
		cases[idx] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(sigch)}
		actions[idx] = action
		signal.Notify(sigch, sig)
		idx++
	}

	for {
		chosen, _, _ := reflect.Select(cases)
		actions[chosen]()
	}
}

// RunReopenAndRotate wires SIGHUP to onReopen and SIGUSR1 to onRotate,
// the two operator-facing hooks a long-running rotorlog host exposes
// (ReopenOutput for log-rotation-by-outside-actor tolerance,
// TriggerRotation for an operator-requested manual rotation).
func RunReopenAndRotate(onReopen, onRotate func()) {
	Run(Mappings{
		syscall.SIGHUP:  onReopen,
		syscall.SIGUSR1: onRotate,
	})
}
