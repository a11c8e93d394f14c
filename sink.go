package rotorlog

// Sink is the contract every destination for log bytes implements (§4.7).
// Most sinks honor the shared FilterSpec; a sink driven purely by
// explicit routing (the "{name}" syntax of §4.4) may choose to act
// unconditionally instead.
type Sink interface {
	Write(now *DeferredTimestamp, r *Record) error
	Flush() error
	Shutdown()
	MaxLevel() Severity
}

// Reopener is implemented by sinks that can tolerate external
// manipulation of their underlying file (§4.6.5) or an explicit
// reopen request propagated from the Handle.
type Reopener interface {
	ReopenOutput() error
}

// Rotator is implemented by sinks that support a manual rotation
// trigger (§4.6.2's "Manual" criterion, propagated via Handle.TriggerRotation).
type Rotator interface {
	TriggerRotation() error
}

// FileEnumerator is implemented by sinks that can list the files they
// recognize as belonging to their own naming scheme (§4.8's
// existing_log_files).
type FileEnumerator interface {
	ExistingLogFiles(selector FileSelector) ([]string, error)
}

// FileSelector chooses which category of recognized file to enumerate.
type FileSelector int

const (
	SelectPlain FileSelector = 1 << iota
	SelectCompressed
	SelectCurrent
)

// SelectAll enumerates every recognized file regardless of category.
const SelectAll = SelectPlain | SelectCompressed | SelectCurrent
