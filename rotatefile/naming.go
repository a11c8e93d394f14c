package rotatefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
)

const (
	currentInfix  = "rCURRENT"
	timestampForm = "2006-01-02_15-04-05"
)

// pathFor joins dir/basename + "_" + infix + suffix, the common layout
// every naming scheme shares (spec §4.6: "the names of the current
// output file and the rotated log files only differ in the infix").
func (c Config) pathFor(infix string) string {
	name := c.Basename
	if infix != "" {
		name += "_" + infix
	}
	name += c.Suffix
	return filepath.Join(c.Directory, name)
}

// currentPath returns the path records are currently written to.
func (c Config) currentPath(lastInfix string) string {
	switch c.Naming {
	case Timestamps, Numbers, StrftimeFormat:
		return c.pathFor(currentInfix)
	case TimestampsDirect:
		if lastInfix == "" {
			lastInfix = "r" + time.Now().Format(timestampForm)
		}
		return c.pathFor(lastInfix)
	case NumbersDirect:
		if lastInfix == "" {
			lastInfix = "r00000"
		}
		return c.pathFor(lastInfix)
	case Custom:
		return c.pathFor(c.CustomNamer(lastInfix))
	default:
		return c.pathFor(currentInfix)
	}
}

// strftimeInfix renders ts per c.StrftimePattern, falling back to the
// fixed timestamp layout if the pattern fails to compile (it was
// already validated in NewFileSink, so this only guards against a
// Config built by hand without going through it).
func (c Config) strftimeInfix(ts time.Time) string {
	f, err := strftime.New(c.StrftimePattern)
	if err != nil {
		return ts.Format(timestampForm)
	}
	return f.FormatString(ts)
}

// rotatedInfix computes the infix the about-to-be-rotated-away file
// should be renamed to (or, for the Direct namings, the infix of the
// new current file), given the previous infix and the file's creation
// time.
func (c Config) rotatedInfix(lastInfix string, created, now time.Time) string {
	switch c.Naming {
	case Timestamps, TimestampsDirect:
		ts := created
		if c.Naming == TimestampsDirect {
			ts = now
		}
		if c.UseUTC {
			ts = ts.UTC()
		}
		return c.collisionFree("r" + ts.Format(timestampForm))
	case StrftimeFormat:
		ts := created
		if c.UseUTC {
			ts = ts.UTC()
		}
		return c.collisionFree("r" + c.strftimeInfix(ts))
	case Numbers, NumbersDirect:
		n := 0
		if lastInfix != "" {
			if parsed, err := strconv.Atoi(strings.TrimPrefix(lastInfix, "r")); err == nil {
				n = parsed
			}
		}
		return fmt.Sprintf("r%05d", n+1)
	case Custom:
		return c.CustomNamer(lastInfix)
	default:
		return lastInfix
	}
}

// collisionFree appends ".restart-NNNN" to infix until pathFor(infix)
// names a file that does not yet exist on disk, matching the spec's
// ".restart-0000"-style extended infix for same-second rotations.
func (c Config) collisionFree(infix string) string {
	if _, err := os.Stat(c.pathFor(infix)); os.IsNotExist(err) {
		return infix
	}
	for n := 0; n < 10000; n++ {
		candidate := fmt.Sprintf("%s.restart-%04d", infix, n)
		if _, err := os.Stat(c.pathFor(candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
	// Give up looking for a free slot and let the caller's rename/open
	// fail loudly rather than looping forever.
	return fmt.Sprintf("%s.restart-%d", infix, time.Now().UnixNano())
}

// infixFromFilename extracts the infix out of a rotated file's base
// name, or "" if name does not match this config's basename/suffix.
func (c Config) infixFromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, ".gz")
	prefix := c.Basename + "_"
	if !strings.HasPrefix(base, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(base, prefix)
	if !strings.HasSuffix(rest, c.Suffix) {
		return ""
	}
	return strings.TrimSuffix(rest, c.Suffix)
}
