// Command rotorlogd is a small demonstration host for the rotorlog
// runtime: it wires a rotating file sink plus a stderr duplicator, and
// shows the SIGHUP/SIGUSR1 operator hooks and the optional spec-file
// watcher. It is not meant to be a service in its own right.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/subosito/gotenv"

	"github.com/one-com/rotorlog"
	"github.com/one-com/rotorlog/rotatefile"
	"github.com/one-com/rotorlog/signals"
	"github.com/one-com/rotorlog/sinks"
	"github.com/one-com/rotorlog/specwatch"
)

func main() {
	_ = gotenv.Load() // .env, if present, seeds process env before flags are read

	var (
		flagDir       = pflag.String("log-dir", env("ROTORLOG_DIR", "log"), "directory for rotated log files")
		flagBasename  = pflag.String("log-name", env("ROTORLOG_NAME", "rotorlogd"), "log file basename")
		flagSpec      = pflag.String("spec", env("ROTORLOG_SPEC", "info"), "initial filter spec")
		flagSpecFile  = pflag.String("spec-file", env("ROTORLOG_SPEC_FILE", ""), "optional TOML spec file to load and watch")
		flagMaxSizeMB = pflag.Int64("max-size-mb", cast.ToInt64(env("ROTORLOG_MAX_SIZE_MB", "10")), "rotate once the current file exceeds this size, in MiB")
		flagStderr    = pflag.String("stderr-level", env("ROTORLOG_STDERR_LEVEL", "off"), "mirror records at or above this severity to stderr")
	)
	pflag.Parse()

	errCh := rotorlog.DefaultErrorChannel()

	primary, err := rotatefile.NewFileSink(rotatefile.SinkConfig{
		Config: rotatefile.Config{
			Directory: *flagDir,
			Basename:  *flagBasename,
			Suffix:    ".log",
			Naming:    rotatefile.Numbers,
			Criterion: rotatefile.SizeCriterion(*flagMaxSizeMB << 20),
			Cleanup:   rotatefile.CleanupPolicy{Strategy: rotatefile.CleanupKeepFiles, Keep: 10},
			Append:    true,
		},
		MaxLevel: rotorlog.Trace,
		Mode:     rotatefile.Buffered,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "rotorlogd: open log file:", err)
		os.Exit(1)
	}

	stderrSink := sinks.NewStreamSink(os.Stderr, sinks.StreamConfig{MaxLevel: rotorlog.Trace})
	duplicator := sinks.NewDuplicator(primary, stderrSink, nil)
	if lvl, ok := rotorlog.ParseSeverity(*flagStderr); ok {
		duplicator.SetStderrLevel(lvl)
	}

	h, err := rotorlog.New(rotorlog.Options{Spec: *flagSpec, Primary: duplicator, ErrorChannel: errCh})
	if err != nil {
		fmt.Fprintln(os.Stderr, "rotorlogd: build handle:", err)
		os.Exit(1)
	}
	defer h.Shutdown()

	if *flagSpecFile != "" {
		w, err := specwatch.Start(*flagSpecFile, *flagSpec, 200*time.Millisecond, h.SetNewSpec, errCh)
		if err != nil {
			fmt.Fprintln(os.Stderr, "rotorlogd: spec file watch:", err)
			os.Exit(1)
		}
		defer w.Stop()
	}

	signals.RunReopenAndRotate(
		func() {
			if err := h.ReopenOutput(""); err != nil {
				errCh.Error("rotorlogd: reopen_output: %v", err)
			}
		},
		func() {
			if err := h.TriggerRotation(""); err != nil {
				errCh.Error("rotorlogd: trigger_rotation: %v", err)
			}
		},
	)

	h.Router().Log(rotorlog.NewStaticRecord(rotorlog.Info, "rotorlogd", "started"))
	select {}
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
