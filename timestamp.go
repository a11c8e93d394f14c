package rotorlog

import (
	"sync"
	"sync/atomic"
	"time"
)

// utcForced is the process-wide irreversible switch from §4.1. Once any
// DeferredTimestamp has materialized a local-time instant, ForceUTC
// fails permanently.
var (
	utcForced       int32
	anyLocalStamped int32
)

// ForceUTC switches every DeferredTimestamp created from this point on to
// render in UTC. It fails with an *Error of Kind UtcAlreadyForced if a record already
// materialized a local-time timestamp, since allowing the switch late
// would make rendered timestamps jump backwards or skip a zone mid-run.
func ForceUTC() error {
	if atomic.LoadInt32(&anyLocalStamped) != 0 {
		return &Error{Kind: UtcAlreadyForced}
	}
	atomic.StoreInt32(&utcForced, 1)
	return nil
}

func utcIsForced() bool {
	return atomic.LoadInt32(&utcForced) != 0
}

// DeferredTimestamp is a cell holding either "unset" or a materialized
// instant. The first call to Now() on a given cell fixes the value for
// the rest of the Record's lifetime; every sink that calls Now() on the
// same cell observes the identical instant, which is the whole point:
// several sinks may format the same Record and must agree on the clock
// reading (§4.1).
type DeferredTimestamp struct {
	once sync.Once
	t    time.Time
}

// NewDeferredTimestamp creates an unmaterialized cell. The router creates
// exactly one of these per Record at entry.
func NewDeferredTimestamp() *DeferredTimestamp {
	return &DeferredTimestamp{}
}

// Now returns the materialized instant, computing it on first access.
func (d *DeferredTimestamp) Now() time.Time {
	d.once.Do(func() {
		d.t = time.Now()
		if utcIsForced() {
			d.t = d.t.UTC()
		} else {
			atomic.StoreInt32(&anyLocalStamped, 1)
		}
	})
	return d.t
}

// Format renders the materialized instant with the given time.Format
// reference-layout pattern.
func (d *DeferredTimestamp) Format(layout string) string {
	return d.Now().Format(layout)
}
