package rotatefile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPathForJoinsBasenameInfixSuffix(t *testing.T) {
	cfg := Config{Directory: "/var/log", Basename: "app", Suffix: ".log"}
	require.Equal(t, filepath.Join("/var/log", "app_rCURRENT.log"), cfg.pathFor("rCURRENT"))
	require.Equal(t, filepath.Join("/var/log", "app.log"), cfg.pathFor(""))
}

func TestCollisionFreeAppendsRestartSuffix(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Directory: dir, Basename: "app", Suffix: ".log"}

	require.NoError(t, os.WriteFile(cfg.pathFor("2020-01-01_00-00-00"), []byte("x"), 0o644))

	got := cfg.collisionFree("2020-01-01_00-00-00")
	require.Equal(t, "2020-01-01_00-00-00.restart-0000", got)
}

func TestCollisionFreeReturnsInfixUnchangedWhenFree(t *testing.T) {
	cfg := Config{Directory: t.TempDir(), Basename: "app", Suffix: ".log"}
	got := cfg.collisionFree("2020-01-01_00-00-00")
	require.Equal(t, "2020-01-01_00-00-00", got)
}

func TestRotatedInfixNumbersIncrementsFromLast(t *testing.T) {
	cfg := Config{Directory: t.TempDir(), Basename: "app", Suffix: ".log", Naming: Numbers}
	require.Equal(t, "r00001", cfg.rotatedInfix("", time.Now(), time.Now()))
	require.Equal(t, "r00006", cfg.rotatedInfix("r00005", time.Now(), time.Now()))
}

func TestRotatedInfixCustomDelegatesToNamer(t *testing.T) {
	cfg := Config{
		Directory: t.TempDir(), Basename: "app", Suffix: ".log",
		Naming:      Custom,
		CustomNamer: func(last string) string { return "fixed-" + last },
	}
	require.Equal(t, "fixed-prev", cfg.rotatedInfix("prev", time.Now(), time.Now()))
}

func TestInfixFromFilenameRecognizesOwnFiles(t *testing.T) {
	cfg := Config{Basename: "app", Suffix: ".log"}
	require.Equal(t, "rCURRENT", cfg.infixFromFilename("app_rCURRENT.log"))
	require.Equal(t, "2020-01-01", cfg.infixFromFilename("app_2020-01-01.log.gz"))
	require.Equal(t, "", cfg.infixFromFilename("other_rCURRENT.log"))
}

func TestCriterionDueOnSize(t *testing.T) {
	c := SizeCriterion(100)
	now := time.Now()
	require.False(t, c.due(now, now, 50))
	require.True(t, c.due(now, now, 150))
}

func TestCriterionDueOnAge(t *testing.T) {
	c := AgeCriterion(AgeDay)
	created := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	sameDay := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	nextDay := time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC)
	require.False(t, c.due(created, sameDay, 0))
	require.True(t, c.due(created, nextDay, 0))
}
