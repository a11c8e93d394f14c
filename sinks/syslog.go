// +build !windows

package sinks

import (
	"log/syslog"

	"github.com/one-com/rotorlog"
)

// SyslogSink writes records to the local syslog daemon via the standard
// library's log/syslog, the same package the teacher's log/syslog
// wrapper re-exports priority constants from rather than speaking the
// wire protocol itself.
type SyslogSink struct {
	w        *syslog.Writer
	format   rotorlog.FormatFunc
	maxLevel rotorlog.Severity
}

// severityPriority maps our 5 severities onto the 8 syslog levels the
// teacher's log/syslog package aliases, following the same LOG_ERROR ==
// LOG_ERR / LOG_WARN == LOG_WARNING convention.
func severityPriority(s rotorlog.Severity) syslog.Priority {
	switch s {
	case rotorlog.Error:
		return syslog.LOG_ERR
	case rotorlog.Warn:
		return syslog.LOG_WARNING
	case rotorlog.Info:
		return syslog.LOG_INFO
	case rotorlog.Debug:
		return syslog.LOG_DEBUG
	case rotorlog.Trace:
		return syslog.LOG_DEBUG
	default:
		return syslog.LOG_INFO
	}
}

// NewSyslogSink dials the local syslog daemon (network="" , raddr="") and
// tags every message with tag. facility sets the syslog facility (e.g.
// syslog.LOG_DAEMON); the severity is added per-record by Write.
func NewSyslogSink(facility syslog.Priority, tag string, format rotorlog.FormatFunc, maxLevel rotorlog.Severity) (*SyslogSink, error) {
	w, err := syslog.New(facility|syslog.LOG_INFO, tag)
	if err != nil {
		return nil, rotorlog.Wrap(rotorlog.Io, "dial syslog", err)
	}
	if format == nil {
		format = rotorlog.BasicFormat
	}
	return &SyslogSink{w: w, format: format, maxLevel: maxLevel}, nil
}

func (s *SyslogSink) Write(now *rotorlog.DeferredTimestamp, r *rotorlog.Record) error {
	if r.Severity > s.maxLevel {
		return nil
	}
	buf := getLineBuffer()
	defer putLineBuffer(buf)
	if err := s.format(buf, now, r); err != nil {
		return rotorlog.Wrap(rotorlog.FormatFailed, "syslog sink format", err)
	}
	line := buf.String()

	var err error
	switch severityPriority(r.Severity) {
	case syslog.LOG_ERR:
		err = s.w.Err(line)
	case syslog.LOG_WARNING:
		err = s.w.Warning(line)
	case syslog.LOG_DEBUG:
		err = s.w.Debug(line)
	default:
		err = s.w.Info(line)
	}
	if err != nil {
		return rotorlog.Wrap(rotorlog.Io, "syslog write", err)
	}
	return nil
}

func (s *SyslogSink) Flush() error { return nil }
func (s *SyslogSink) Shutdown()    { _ = s.w.Close() }

func (s *SyslogSink) MaxLevel() rotorlog.Severity { return s.maxLevel }
