package rotatefile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/one-com/rotorlog"
)

func baseConfig(t *testing.T) Config {
	dir := t.TempDir()
	return Config{
		Directory: dir,
		Basename:  "app",
		Suffix:    ".log",
	}
}

func writeLine(t *testing.T, s *FileSink, sev rotorlog.Severity, msg string) {
	t.Helper()
	r := rotorlog.NewStaticRecord(sev, "myapp", msg)
	now := rotorlog.NewDeferredTimestamp()
	require.NoError(t, s.Write(now, &r))
}

func TestFileSinkWritesToCurrentFile(t *testing.T) {
	cfg := baseConfig(t)
	s, err := NewFileSink(SinkConfig{Config: cfg, Format: rotorlog.BasicFormat, MaxLevel: rotorlog.Trace})
	require.NoError(t, err)
	defer s.Shutdown()

	writeLine(t, s, rotorlog.Info, "hello")
	require.NoError(t, s.Flush())

	data, err := os.ReadFile(filepath.Join(cfg.Directory, "app_rCURRENT.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
}

func TestFileSinkRotatesOnSize(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Criterion = SizeCriterion(10)
	cfg.Cleanup = CleanupPolicy{Strategy: CleanupNever}
	s, err := NewFileSink(SinkConfig{Config: cfg, Format: rotorlog.BasicFormat, MaxLevel: rotorlog.Trace})
	require.NoError(t, err)
	defer s.Shutdown()

	for i := 0; i < 5; i++ {
		writeLine(t, s, rotorlog.Info, "0123456789")
	}
	require.NoError(t, s.Flush())

	entries, err := os.ReadDir(cfg.Directory)
	require.NoError(t, err)
	require.Greater(t, len(entries), 1, "expected at least one rotated file in addition to the current file")
}

func TestFileSinkAgeRotationUsesInjectedClock(t *testing.T) {
	cfg := baseConfig(t)
	fake := clockwork.NewFakeClock()
	cfg.Clock = fake
	cfg.Criterion = AgeCriterion(AgeDay)
	s, err := NewFileSink(SinkConfig{Config: cfg, Format: rotorlog.BasicFormat, MaxLevel: rotorlog.Trace})
	require.NoError(t, err)
	defer s.Shutdown()

	writeLine(t, s, rotorlog.Info, "day one")
	fake.Advance(25 * time.Hour)
	writeLine(t, s, rotorlog.Info, "day two")
	require.NoError(t, s.Flush())

	entries, err := os.ReadDir(cfg.Directory)
	require.NoError(t, err)
	require.Greater(t, len(entries), 1, "expected the age criterion to trigger a rotation once the fake clock advances a day")
}

func TestFileSinkAppendModeSeedsSizeFromDisk(t *testing.T) {
	cfg := baseConfig(t)
	path := filepath.Join(cfg.Directory, "app_rCURRENT.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	cfg.Append = true
	cfg.Criterion = SizeCriterion(15)
	s, err := NewFileSink(SinkConfig{Config: cfg, Format: rotorlog.BasicFormat, MaxLevel: rotorlog.Trace})
	require.NoError(t, err)
	defer s.Shutdown()

	// The seeded 10-byte count isn't yet over the 15-byte threshold, so
	// this write goes through without rotating, but pushes the size well
	// past it; the next write's pre-check then sees the seeded count plus
	// this write and rotates before writing.
	writeLine(t, s, rotorlog.Info, "0123456789")
	writeLine(t, s, rotorlog.Info, "0123456789")
	require.NoError(t, s.Flush())

	entries, err := os.ReadDir(cfg.Directory)
	require.NoError(t, err)
	require.Greater(t, len(entries), 1, "expected the pre-existing on-disk size to be seeded into the rotation counter")
}

func TestFileSinkTriggerRotationIsManual(t *testing.T) {
	cfg := baseConfig(t)
	s, err := NewFileSink(SinkConfig{Config: cfg, Format: rotorlog.BasicFormat, MaxLevel: rotorlog.Trace})
	require.NoError(t, err)
	defer s.Shutdown()

	writeLine(t, s, rotorlog.Info, "before rotation")
	require.NoError(t, s.TriggerRotation())
	writeLine(t, s, rotorlog.Info, "after rotation")
	require.NoError(t, s.Flush())

	entries, err := os.ReadDir(cfg.Directory)
	require.NoError(t, err)
	require.Len(t, entries, 2, "expected exactly one rotated file plus the current file")
}

func TestFileSinkExistingLogFilesSelector(t *testing.T) {
	cfg := baseConfig(t)
	s, err := NewFileSink(SinkConfig{Config: cfg, Format: rotorlog.BasicFormat, MaxLevel: rotorlog.Trace})
	require.NoError(t, err)
	defer s.Shutdown()

	writeLine(t, s, rotorlog.Info, "first")
	require.NoError(t, s.TriggerRotation())
	writeLine(t, s, rotorlog.Info, "second")
	require.NoError(t, s.Flush())

	current, err := s.ExistingLogFiles(rotorlog.SelectCurrent)
	require.NoError(t, err)
	require.Len(t, current, 1)

	plain, err := s.ExistingLogFiles(rotorlog.SelectPlain)
	require.NoError(t, err)
	require.Len(t, plain, 1)

	all, err := s.ExistingLogFiles(rotorlog.SelectAll)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestFileSinkRejectsCustomNamingWithoutNamer(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Naming = Custom
	_, err := NewFileSink(SinkConfig{Config: cfg})
	require.Error(t, err)
}

func TestFileSinkRejectsStrftimePatternWithoutTimeDirective(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Naming = StrftimeFormat
	cfg.StrftimePattern = "plain-no-directive"
	_, err := NewFileSink(SinkConfig{Config: cfg})
	require.Error(t, err)
}

func TestFileSinkRejectsInvalidStrftimePattern(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Naming = StrftimeFormat
	cfg.StrftimePattern = "%"
	_, err := NewFileSink(SinkConfig{Config: cfg})
	require.Error(t, err)
}

func TestFileSinkStrftimeNamingRotates(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Naming = StrftimeFormat
	cfg.StrftimePattern = "%Y%m%d-%H%M%S"
	s, err := NewFileSink(SinkConfig{Config: cfg, Format: rotorlog.BasicFormat, MaxLevel: rotorlog.Trace})
	require.NoError(t, err)
	defer s.Shutdown()

	writeLine(t, s, rotorlog.Info, "before")
	require.NoError(t, s.TriggerRotation())
	writeLine(t, s, rotorlog.Info, "after")
	require.NoError(t, s.Flush())

	entries, err := os.ReadDir(cfg.Directory)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestFileSinkMaxLevelFiltersBeforeRotationCheck(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Criterion = SizeCriterion(1)
	s, err := NewFileSink(SinkConfig{Config: cfg, Format: rotorlog.BasicFormat, MaxLevel: rotorlog.Warn})
	require.NoError(t, err)
	defer s.Shutdown()

	writeLine(t, s, rotorlog.Debug, "should be dropped")
	require.NoError(t, s.Flush())

	entries, err := os.ReadDir(cfg.Directory)
	require.NoError(t, err)
	require.Len(t, entries, 1, "a filtered-out record must not trigger rotation or be written")

	data, err := os.ReadFile(filepath.Join(cfg.Directory, entries[0].Name()))
	require.NoError(t, err)
	require.Empty(t, string(data))
}
