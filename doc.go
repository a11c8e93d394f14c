/*
Package rotorlog is a structured logging runtime embedded in a host
program. It accepts log Records from many goroutines, filters them
against a dynamically updatable FilterSpec, formats them with a
caller-supplied FormatFunc, and dispatches them to a primary Sink and any
number of named auxiliary Sinks (rotating files, the standard streams,
an in-memory buffer, syslog, or a caller-supplied Sink).

The package does not install itself as a global logger. It hands out a
Handle which owns every Sink and must be kept alive for the life of the
program; dropping it (or calling Shutdown) flushes and drains everything
in order.

Synopsis

	primary, err := rotatefile.NewFileSink(rotatefile.SinkConfig{
		Config: rotatefile.Config{
			Directory: "log",
			Basename:  "myapp",
			Suffix:    ".log",
			Naming:    rotatefile.Numbers,
			Criterion: rotatefile.SizeCriterion(10 << 20),
		},
		MaxLevel: rotorlog.Trace,
	})
	if err != nil {
		log.Fatal(err)
	}

	h, err := rotorlog.New(rotorlog.Options{
		Spec:    "info, myapp::db=debug",
		Primary: primary,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer h.Shutdown()

	h.Router().Log(rotorlog.NewStaticRecord(rotorlog.Info, "myapp::db", "connected"))

Reconfiguration is always atomic: SetNewSpec swaps the active FilterSpec
without ever blocking a concurrent Enabled()/Log() call for more than a
brief read lock, the same way the teacher's swapper type lets a Handler
be replaced in flight without readers observing a half-built value.
*/
package rotorlog
